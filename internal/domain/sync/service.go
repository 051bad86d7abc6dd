package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"lookyswappy/internal/domain/game"
)

// Servicer is the sync engine contract: one pull and one push, both
// stateless between calls. The watermark is caller-persisted.
type Servicer interface {
	// Pull returns all changes for the device since the given
	// watermark, plus the new watermark the caller must persist.
	Pull(ctx context.Context, deviceID string, lastPulledAt float64) (*PullResponse, error)

	// Push applies a batch of client-originated changes. The whole
	// batch is rejected if the server has newer state than the
	// device's watermark; otherwise it is applied in one transaction.
	Push(ctx context.Context, deviceID string, req PushRequest) (*PushResponse, error)
}

type Service struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With("component", "sync_service"),
		now:  time.Now,
	}
}

// Pull computes the device's change sets across all four tables.
// Child tables are filtered through the scope of currently non-deleted
// parents: a child whose parent was deleted simply stops appearing;
// its own tombstone is not forced.
func (s *Service) Pull(ctx context.Context, deviceID string, lastPulledAt float64) (*PullResponse, error) {
	// Captured before any read so the next pull cannot miss writes
	// that land while this one runs.
	now := s.now().UTC()
	since := WatermarkTime(lastPulledAt)

	games, err := s.repo.GamesModifiedSince(ctx, deviceID, since)
	if err != nil {
		return nil, fmt.Errorf("load games: %w", err)
	}

	gameScope, err := s.repo.ActiveGameIDs(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("load game scope: %w", err)
	}

	players, err := s.repo.PlayersModifiedSince(ctx, gameScope, since)
	if err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}

	rounds, err := s.repo.RoundsModifiedSince(ctx, gameScope, since)
	if err != nil {
		return nil, fmt.Errorf("load rounds: %w", err)
	}

	roundScope, err := s.repo.ActiveRoundIDs(ctx, gameScope)
	if err != nil {
		return nil, fmt.Errorf("load round scope: %w", err)
	}

	scores, err := s.repo.ScoresModifiedSince(ctx, roundScope, since)
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}

	gamePub, playerPub, roundPub, err := s.referenceLookups(ctx, games, players, rounds, scores)
	if err != nil {
		return nil, err
	}

	changes := SyncChanges{
		Games:       emptyTable[GameSync](),
		GamePlayers: emptyTable[PlayerSync](),
		Rounds:      emptyTable[RoundSync](),
		Scores:      emptyTable[ScoreSync](),
	}

	for _, g := range games {
		switch classify(g.Syncable, since) {
		case changeDeleted:
			changes.Games.Deleted = append(changes.Games.Deleted, g.PublicID())
		case changeCreated:
			changes.Games.Created = append(changes.Games.Created, gameToWire(g, playerPub))
		case changeUpdated:
			changes.Games.Updated = append(changes.Games.Updated, gameToWire(g, playerPub))
		}
	}

	for _, p := range players {
		switch classify(p.Syncable, since) {
		case changeDeleted:
			changes.GamePlayers.Deleted = append(changes.GamePlayers.Deleted, p.PublicID())
		case changeCreated:
			changes.GamePlayers.Created = append(changes.GamePlayers.Created, playerToWire(p, gamePub))
		case changeUpdated:
			changes.GamePlayers.Updated = append(changes.GamePlayers.Updated, playerToWire(p, gamePub))
		}
	}

	for _, r := range rounds {
		switch classify(r.Syncable, since) {
		case changeDeleted:
			changes.Rounds.Deleted = append(changes.Rounds.Deleted, r.PublicID())
		case changeCreated:
			changes.Rounds.Created = append(changes.Rounds.Created, roundToWire(r, gamePub, playerPub))
		case changeUpdated:
			changes.Rounds.Updated = append(changes.Rounds.Updated, roundToWire(r, gamePub, playerPub))
		}
	}

	for _, sc := range scores {
		switch classify(sc.Syncable, since) {
		case changeDeleted:
			changes.Scores.Deleted = append(changes.Scores.Deleted, sc.PublicID())
		case changeCreated:
			changes.Scores.Created = append(changes.Scores.Created, scoreToWire(sc, roundPub, playerPub))
		case changeUpdated:
			changes.Scores.Updated = append(changes.Scores.Updated, scoreToWire(sc, roundPub, playerPub))
		}
	}

	s.log.Debug("pull computed",
		"device_id", deviceID,
		"since", lastPulledAt,
		"games", len(games),
		"players", len(players),
		"rounds", len(rounds),
		"scores", len(scores),
	)

	return &PullResponse{
		Changes:   changes,
		Timestamp: WatermarkOf(now),
	}, nil
}

// referenceLookups builds the server-to-public identity maps for every
// foreign key that will appear in the pull output.
func (s *Service) referenceLookups(
	ctx context.Context,
	games []game.Game,
	players []game.GamePlayer,
	rounds []game.Round,
	scores []game.Score,
) (gamePub, playerPub, roundPub map[string]string, err error) {
	gameRefs := make(map[string]struct{})
	playerRefs := make(map[string]struct{})
	roundRefs := make(map[string]struct{})

	for _, g := range games {
		if g.WinnerID != nil {
			playerRefs[*g.WinnerID] = struct{}{}
		}
	}
	for _, p := range players {
		gameRefs[p.GameID] = struct{}{}
	}
	for _, r := range rounds {
		gameRefs[r.GameID] = struct{}{}
		if r.CallerID != nil {
			playerRefs[*r.CallerID] = struct{}{}
		}
	}
	for _, sc := range scores {
		roundRefs[sc.RoundID] = struct{}{}
		playerRefs[sc.PlayerID] = struct{}{}
	}

	gamePub, err = s.repo.PublicIDs(ctx, TableGames, keys(gameRefs))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("map game identities: %w", err)
	}
	playerPub, err = s.repo.PublicIDs(ctx, TablePlayers, keys(playerRefs))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("map player identities: %w", err)
	}
	roundPub, err = s.repo.PublicIDs(ctx, TableRounds, keys(roundRefs))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("map round identities: %w", err)
	}
	return gamePub, playerPub, roundPub, nil
}

// Push gates the batch on the conflict check, then applies all four
// tables in dependency order inside one transaction. Records whose
// required references cannot be resolved are skipped, not errored; a
// store failure rolls the entire batch back.
func (s *Service) Push(ctx context.Context, deviceID string, req PushRequest) (*PushResponse, error) {
	lastPulled := WatermarkTime(req.LastPulledAt)

	conflict, err := s.repo.GameModifiedAfter(ctx, deviceID, lastPulled)
	if err != nil {
		return nil, fmt.Errorf("conflict check: %w", err)
	}
	if conflict {
		s.log.Info("push rejected on conflict",
			"device_id", deviceID, "last_pulled_at", req.LastPulledAt)
		return &PushResponse{
			OK:     false,
			Errors: []string{"conflict: server has newer changes, pull before pushing"},
		}, nil
	}

	now := s.now().UTC()
	var skipped int

	err = s.repo.InTx(ctx, func(w Writer) error {
		n, err := s.applyGames(ctx, w, deviceID, req.Changes.Games, now)
		skipped += n
		if err != nil {
			return err
		}
		n, err = s.applyPlayers(ctx, w, deviceID, req.Changes.GamePlayers, now)
		skipped += n
		if err != nil {
			return err
		}
		n, err = s.applyRounds(ctx, w, deviceID, req.Changes.Rounds, now)
		skipped += n
		if err != nil {
			return err
		}
		n, err = s.applyScores(ctx, w, req.Changes.Scores, now)
		skipped += n
		return err
	})
	if err != nil {
		s.log.Error("push transaction rolled back",
			"device_id", deviceID, "error", err)
		return &PushResponse{OK: false, Errors: []string{err.Error()}}, nil
	}

	if skipped > 0 {
		// Skips are deliberately not surfaced in the response; the
		// log is the only place they are observable.
		s.log.Warn("push committed with records skipped",
			"device_id", deviceID, "skipped", skipped)
	}

	return &PushResponse{OK: true, Errors: []string{}}, nil
}

func (s *Service) applyGames(ctx context.Context, w Writer, deviceID string, tc TableChanges[GameSync], now time.Time) (int, error) {
	var skipped int

	build := func(rec GameSync, serverID string) (*game.Game, error) {
		winner, err := s.resolveOptional(ctx, w, TablePlayers, rec.WinnerID)
		if err != nil {
			return nil, err
		}
		startedAt := rec.StartedAt
		if startedAt.IsZero() {
			startedAt = now
		}
		clientID := rec.ID
		return &game.Game{
			Syncable: game.Syncable{
				ID:           serverID,
				ClientID:     &clientID,
				LastModified: now,
				CreatedAt:    now,
			},
			DeviceID:    deviceID,
			Name:        rec.Name,
			TargetScore: rec.TargetScore,
			Status:      rec.Status,
			WinnerID:    winner,
			StartedAt:   startedAt,
			EndedAt:     rec.EndedAt,
		}, nil
	}

	for _, rec := range tc.Created {
		sid, err := w.ResolveGameID(ctx, deviceID, rec.ID)
		switch {
		case errors.Is(err, ErrNotFound):
			g, err := build(rec, uuid.NewString())
			if err != nil {
				return skipped, err
			}
			if err := w.InsertGame(ctx, g); err != nil {
				return skipped, err
			}
		case errors.Is(err, ErrNotOwned):
			skipped++
			s.log.Warn("dropping game create with foreign identity",
				"device_id", deviceID, "id", rec.ID)
		case err != nil:
			return skipped, err
		default:
			// Retried create with the same client identity: apply in
			// place so at-least-once pushes do not duplicate records.
			g, err := build(rec, sid)
			if err != nil {
				return skipped, err
			}
			if err := w.UpdateGame(ctx, g); err != nil {
				return skipped, err
			}
		}
	}

	for _, rec := range tc.Updated {
		sid, err := w.ResolveGameID(ctx, deviceID, rec.ID)
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotOwned):
			skipped++
			s.log.Warn("dropping game update outside device scope",
				"device_id", deviceID, "id", rec.ID)
		case err != nil:
			return skipped, err
		default:
			g, err := build(rec, sid)
			if err != nil {
				return skipped, err
			}
			if err := w.UpdateGame(ctx, g); err != nil {
				return skipped, err
			}
		}
	}

	// A foreign identity is handled like an absent one: the game does
	// not exist as far as this device can see, so the delete is a no-op.
	for _, id := range tc.Deleted {
		sid, err := w.ResolveGameID(ctx, deviceID, id)
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotOwned) {
			continue
		}
		if err != nil {
			return skipped, err
		}
		if err := w.SoftDelete(ctx, TableGames, sid, now); err != nil {
			return skipped, err
		}
	}

	return skipped, nil
}

func (s *Service) applyPlayers(ctx context.Context, w Writer, deviceID string, tc TableChanges[PlayerSync], now time.Time) (int, error) {
	var skipped int

	for _, rec := range tc.Created {
		gameSID, err := w.ResolveGameID(ctx, deviceID, rec.GameID)
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotOwned) {
			skipped++
			s.log.Warn("skipping player with unresolved game",
				"id", rec.ID, "game_id", rec.GameID)
			continue
		}
		if err != nil {
			return skipped, err
		}

		sid, err := w.ResolveClientID(ctx, TablePlayers, rec.ID)
		clientID := rec.ID
		p := &game.GamePlayer{
			Syncable: game.Syncable{
				ClientID:     &clientID,
				LastModified: now,
				CreatedAt:    now,
			},
			GameID:     gameSID,
			Name:       rec.Name,
			Position:   rec.Position,
			TotalScore: rec.CurrentTotal,
		}
		switch {
		case errors.Is(err, ErrNotFound):
			p.ID = uuid.NewString()
			if err := w.InsertPlayer(ctx, p); err != nil {
				return skipped, err
			}
		case err != nil:
			return skipped, err
		default:
			p.ID = sid
			if err := w.UpdatePlayer(ctx, p); err != nil {
				return skipped, err
			}
		}
	}

	for _, rec := range tc.Updated {
		sid, err := w.ResolveClientID(ctx, TablePlayers, rec.ID)
		switch {
		case errors.Is(err, ErrNotFound):
			skipped++
			s.log.Warn("dropping update for unknown record",
				"table", TablePlayers, "id", rec.ID)
		case err != nil:
			return skipped, err
		default:
			p := &game.GamePlayer{
				Syncable:   game.Syncable{ID: sid, LastModified: now},
				Name:       rec.Name,
				Position:   rec.Position,
				TotalScore: rec.CurrentTotal,
			}
			if err := w.UpdatePlayer(ctx, p); err != nil {
				return skipped, err
			}
		}
	}

	return skipped, s.applyDeletes(ctx, w, TablePlayers, tc.Deleted, now)
}

func (s *Service) applyRounds(ctx context.Context, w Writer, deviceID string, tc TableChanges[RoundSync], now time.Time) (int, error) {
	var skipped int

	for _, rec := range tc.Created {
		gameSID, err := w.ResolveGameID(ctx, deviceID, rec.GameID)
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotOwned) {
			skipped++
			s.log.Warn("skipping round with unresolved game",
				"id", rec.ID, "game_id", rec.GameID)
			continue
		}
		if err != nil {
			return skipped, err
		}

		caller, err := s.resolveOptional(ctx, w, TablePlayers, rec.CallerID)
		if err != nil {
			return skipped, err
		}

		createdAt := rec.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}

		sid, err := w.ResolveClientID(ctx, TableRounds, rec.ID)
		clientID := rec.ID
		r := &game.Round{
			Syncable: game.Syncable{
				ClientID:     &clientID,
				LastModified: now,
				CreatedAt:    createdAt,
			},
			GameID:      gameSID,
			RoundNumber: rec.RoundNumber,
			CallerID:    caller,
		}
		switch {
		case errors.Is(err, ErrNotFound):
			r.ID = uuid.NewString()
			if err := w.InsertRound(ctx, r); err != nil {
				return skipped, err
			}
		case err != nil:
			return skipped, err
		default:
			r.ID = sid
			if err := w.UpdateRound(ctx, r); err != nil {
				return skipped, err
			}
		}
	}

	for _, rec := range tc.Updated {
		sid, err := w.ResolveClientID(ctx, TableRounds, rec.ID)
		switch {
		case errors.Is(err, ErrNotFound):
			skipped++
			s.log.Warn("dropping update for unknown record",
				"table", TableRounds, "id", rec.ID)
		case err != nil:
			return skipped, err
		default:
			caller, err := s.resolveOptional(ctx, w, TablePlayers, rec.CallerID)
			if err != nil {
				return skipped, err
			}
			r := &game.Round{
				Syncable:    game.Syncable{ID: sid, LastModified: now},
				RoundNumber: rec.RoundNumber,
				CallerID:    caller,
			}
			if err := w.UpdateRound(ctx, r); err != nil {
				return skipped, err
			}
		}
	}

	return skipped, s.applyDeletes(ctx, w, TableRounds, tc.Deleted, now)
}

func (s *Service) applyScores(ctx context.Context, w Writer, tc TableChanges[ScoreSync], now time.Time) (int, error) {
	var skipped int

	for _, rec := range tc.Created {
		roundSID, err := w.ResolveClientID(ctx, TableRounds, rec.RoundID)
		if errors.Is(err, ErrNotFound) {
			skipped++
			s.log.Warn("skipping score with unresolved round",
				"id", rec.ID, "round_id", rec.RoundID)
			continue
		}
		if err != nil {
			return skipped, err
		}

		playerSID, err := w.ResolveClientID(ctx, TablePlayers, rec.PlayerID)
		if errors.Is(err, ErrNotFound) {
			skipped++
			s.log.Warn("skipping score with unresolved player",
				"id", rec.ID, "player_id", rec.PlayerID)
			continue
		}
		if err != nil {
			return skipped, err
		}

		sid, err := w.ResolveClientID(ctx, TableScores, rec.ID)
		clientID := rec.ID
		sc := &game.Score{
			Syncable: game.Syncable{
				ClientID:     &clientID,
				LastModified: now,
				CreatedAt:    now,
			},
			RoundID:      roundSID,
			PlayerID:     playerSID,
			RawScore:     rec.RawScore,
			BonusApplied: rec.BonusApplied,
			FinalScore:   rec.FinalScore,
			TotalAfter:   rec.TotalAfter,
		}
		switch {
		case errors.Is(err, ErrNotFound):
			sc.ID = uuid.NewString()
			if err := w.InsertScore(ctx, sc); err != nil {
				return skipped, err
			}
		case err != nil:
			return skipped, err
		default:
			sc.ID = sid
			if err := w.UpdateScore(ctx, sc); err != nil {
				return skipped, err
			}
		}
	}

	for _, rec := range tc.Updated {
		sid, err := w.ResolveClientID(ctx, TableScores, rec.ID)
		switch {
		case errors.Is(err, ErrNotFound):
			skipped++
			s.log.Warn("dropping update for unknown record",
				"table", TableScores, "id", rec.ID)
		case err != nil:
			return skipped, err
		default:
			sc := &game.Score{
				Syncable:     game.Syncable{ID: sid, LastModified: now},
				RawScore:     rec.RawScore,
				BonusApplied: rec.BonusApplied,
				FinalScore:   rec.FinalScore,
				TotalAfter:   rec.TotalAfter,
			}
			if err := w.UpdateScore(ctx, sc); err != nil {
				return skipped, err
			}
		}
	}

	return skipped, s.applyDeletes(ctx, w, TableScores, tc.Deleted, now)
}

// applyDeletes soft-deletes each resolvable record. An identity that
// resolves to nothing is treated as already deleted elsewhere, which
// keeps deletion idempotent across retries and devices.
func (s *Service) applyDeletes(ctx context.Context, w Writer, table string, ids []string, now time.Time) error {
	for _, id := range ids {
		sid, err := w.ResolveClientID(ctx, table, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if err := w.SoftDelete(ctx, table, sid, now); err != nil {
			return err
		}
	}
	return nil
}

// resolveOptional maps an optional public reference to a server
// identity. An unknown reference is stored as null rather than failing
// the record: optional references never decide a record's fate.
func (s *Service) resolveOptional(ctx context.Context, w Writer, table string, publicID *string) (*string, error) {
	if publicID == nil || *publicID == "" {
		return nil, nil
	}
	sid, err := w.ResolveClientID(ctx, table, *publicID)
	if errors.Is(err, ErrNotFound) {
		s.log.Debug("optional reference unresolved, storing null",
			"table", table, "id", *publicID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sid, nil
}

func emptyTable[T any]() TableChanges[T] {
	return TableChanges[T]{Created: []T{}, Updated: []T{}, Deleted: []string{}}
}

func gameToWire(g game.Game, playerPub map[string]string) GameSync {
	return GameSync{
		ID:          g.PublicID(),
		Name:        g.Name,
		TargetScore: g.TargetScore,
		Status:      g.Status,
		WinnerID:    translateOpt(playerPub, g.WinnerID),
		StartedAt:   g.StartedAt,
		EndedAt:     g.EndedAt,
	}
}

func playerToWire(p game.GamePlayer, gamePub map[string]string) PlayerSync {
	return PlayerSync{
		ID:           p.PublicID(),
		GameID:       translate(gamePub, p.GameID),
		Name:         p.Name,
		Position:     p.Position,
		CurrentTotal: p.TotalScore,
	}
}

func roundToWire(r game.Round, gamePub, playerPub map[string]string) RoundSync {
	return RoundSync{
		ID:          r.PublicID(),
		GameID:      translate(gamePub, r.GameID),
		RoundNumber: r.RoundNumber,
		CallerID:    translateOpt(playerPub, r.CallerID),
		CreatedAt:   r.CreatedAt,
	}
}

func scoreToWire(sc game.Score, roundPub, playerPub map[string]string) ScoreSync {
	return ScoreSync{
		ID:           sc.PublicID(),
		RoundID:      translate(roundPub, sc.RoundID),
		PlayerID:     translate(playerPub, sc.PlayerID),
		RawScore:     sc.RawScore,
		BonusApplied: sc.BonusApplied,
		FinalScore:   sc.FinalScore,
		TotalAfter:   sc.TotalAfter,
	}
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
