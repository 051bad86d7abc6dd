package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"lookyswappy/internal/domain/game"
)

// MockRepository is a mock implementation of the Repository interface for testing
type MockRepository struct {
	mock.Mock
	writer *MockWriter
}

func (m *MockRepository) GamesModifiedSince(ctx context.Context, deviceID string, since time.Time) ([]game.Game, error) {
	args := m.Called(ctx, deviceID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]game.Game), args.Error(1)
}

func (m *MockRepository) ActiveGameIDs(ctx context.Context, deviceID string) ([]string, error) {
	args := m.Called(ctx, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRepository) PlayersModifiedSince(ctx context.Context, gameIDs []string, since time.Time) ([]game.GamePlayer, error) {
	args := m.Called(ctx, gameIDs, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]game.GamePlayer), args.Error(1)
}

func (m *MockRepository) RoundsModifiedSince(ctx context.Context, gameIDs []string, since time.Time) ([]game.Round, error) {
	args := m.Called(ctx, gameIDs, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]game.Round), args.Error(1)
}

func (m *MockRepository) ActiveRoundIDs(ctx context.Context, gameIDs []string) ([]string, error) {
	args := m.Called(ctx, gameIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRepository) ScoresModifiedSince(ctx context.Context, roundIDs []string, since time.Time) ([]game.Score, error) {
	args := m.Called(ctx, roundIDs, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]game.Score), args.Error(1)
}

func (m *MockRepository) PublicIDs(ctx context.Context, table string, serverIDs []string) (map[string]string, error) {
	args := m.Called(ctx, table, serverIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockRepository) GameModifiedAfter(ctx context.Context, deviceID string, t time.Time) (bool, error) {
	args := m.Called(ctx, deviceID, t)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) InTx(ctx context.Context, fn func(w Writer) error) error {
	args := m.Called(ctx)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(m.writer)
}

// MockWriter is a mock implementation of the Writer interface for testing
type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) ResolveClientID(ctx context.Context, table, clientID string) (string, error) {
	args := m.Called(ctx, table, clientID)
	return args.String(0), args.Error(1)
}

func (m *MockWriter) ResolveGameID(ctx context.Context, deviceID, clientID string) (string, error) {
	args := m.Called(ctx, deviceID, clientID)
	return args.String(0), args.Error(1)
}

func (m *MockWriter) InsertGame(ctx context.Context, g *game.Game) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

func (m *MockWriter) UpdateGame(ctx context.Context, g *game.Game) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

func (m *MockWriter) InsertPlayer(ctx context.Context, p *game.GamePlayer) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockWriter) UpdatePlayer(ctx context.Context, p *game.GamePlayer) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockWriter) InsertRound(ctx context.Context, r *game.Round) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockWriter) UpdateRound(ctx context.Context, r *game.Round) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockWriter) InsertScore(ctx context.Context, s *game.Score) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockWriter) UpdateScore(ctx context.Context, s *game.Score) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockWriter) SoftDelete(ctx context.Context, table, serverID string, now time.Time) error {
	args := m.Called(ctx, table, serverID, now)
	return args.Error(0)
}

const deviceID = "d8f3a1c2-0000-0000-0000-000000000001"

func newTestService(repo *MockRepository) *Service {
	svc := NewService(repo, slog.Default())
	svc.now = func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func expectEmptyReads(repo *MockRepository) {
	repo.On("GamesModifiedSince", mock.Anything, deviceID, mock.Anything).Return([]game.Game{}, nil)
	repo.On("ActiveGameIDs", mock.Anything, deviceID).Return([]string{}, nil)
	repo.On("PlayersModifiedSince", mock.Anything, mock.Anything, mock.Anything).Return([]game.GamePlayer{}, nil)
	repo.On("RoundsModifiedSince", mock.Anything, mock.Anything, mock.Anything).Return([]game.Round{}, nil)
	repo.On("ActiveRoundIDs", mock.Anything, mock.Anything).Return([]string{}, nil)
	repo.On("ScoresModifiedSince", mock.Anything, mock.Anything, mock.Anything).Return([]game.Score{}, nil)
	repo.On("PublicIDs", mock.Anything, mock.Anything, mock.Anything).Return(map[string]string{}, nil)
}

func TestService_Pull_Empty(t *testing.T) {
	repo := new(MockRepository)
	expectEmptyReads(repo)
	svc := newTestService(repo)

	resp, err := svc.Pull(context.Background(), deviceID, 0)
	require.NoError(t, err)

	assert.NotNil(t, resp.Changes.Games.Created)
	assert.Empty(t, resp.Changes.Games.Created)
	assert.Empty(t, resp.Changes.Games.Updated)
	assert.Empty(t, resp.Changes.Games.Deleted)
	assert.Empty(t, resp.Changes.Scores.Created)

	// watermark reflects server time, not the request
	assert.Equal(t, WatermarkOf(svc.now()), resp.Timestamp)
}

func TestService_Pull_ClassifiesByCreatedAt(t *testing.T) {
	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	clientID := "local-game-1"

	created := game.Game{
		Syncable: game.Syncable{
			ID:           "srv-1",
			ClientID:     &clientID,
			CreatedAt:    since.Add(time.Hour),
			LastModified: since.Add(2 * time.Hour),
		},
		DeviceID:    deviceID,
		TargetScore: 100,
		Status:      game.StatusActive,
		StartedAt:   since.Add(time.Hour),
	}
	updated := game.Game{
		Syncable: game.Syncable{
			ID:           "srv-2",
			CreatedAt:    since.Add(-time.Hour),
			LastModified: since.Add(time.Hour),
		},
		DeviceID:    deviceID,
		TargetScore: 100,
		Status:      game.StatusCompleted,
	}
	deleted := game.Game{
		Syncable: game.Syncable{
			ID:           "srv-3",
			IsDeleted:    true,
			CreatedAt:    since.Add(time.Hour),
			LastModified: since.Add(time.Hour),
		},
		DeviceID: deviceID,
	}

	repo := new(MockRepository)
	repo.On("GamesModifiedSince", mock.Anything, deviceID, since).
		Return([]game.Game{created, updated, deleted}, nil)
	repo.On("ActiveGameIDs", mock.Anything, deviceID).Return([]string{"srv-1", "srv-2"}, nil)
	repo.On("PlayersModifiedSince", mock.Anything, mock.Anything, mock.Anything).Return([]game.GamePlayer{}, nil)
	repo.On("RoundsModifiedSince", mock.Anything, mock.Anything, mock.Anything).Return([]game.Round{}, nil)
	repo.On("ActiveRoundIDs", mock.Anything, mock.Anything).Return([]string{}, nil)
	repo.On("ScoresModifiedSince", mock.Anything, mock.Anything, mock.Anything).Return([]game.Score{}, nil)
	repo.On("PublicIDs", mock.Anything, mock.Anything, mock.Anything).Return(map[string]string{}, nil)

	svc := newTestService(repo)

	resp, err := svc.Pull(context.Background(), deviceID, WatermarkOf(since))
	require.NoError(t, err)

	require.Len(t, resp.Changes.Games.Created, 1)
	assert.Equal(t, clientID, resp.Changes.Games.Created[0].ID, "pushed records keep their client identity")

	require.Len(t, resp.Changes.Games.Updated, 1)
	assert.Equal(t, "srv-2", resp.Changes.Games.Updated[0].ID, "server-only records travel under server identity")

	require.Len(t, resp.Changes.Games.Deleted, 1)
	assert.Equal(t, "srv-3", resp.Changes.Games.Deleted[0])
}

func TestService_Pull_TranslatesChildReferences(t *testing.T) {
	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	playerClientID := "local-player-7"

	player := game.GamePlayer{
		Syncable: game.Syncable{
			ID:           "srv-p1",
			ClientID:     &playerClientID,
			CreatedAt:    since.Add(time.Hour),
			LastModified: since.Add(time.Hour),
		},
		GameID:   "srv-g1",
		Name:     "Alice",
		Position: 1,
	}

	repo := new(MockRepository)
	repo.On("GamesModifiedSince", mock.Anything, deviceID, since).Return([]game.Game{}, nil)
	repo.On("ActiveGameIDs", mock.Anything, deviceID).Return([]string{"srv-g1"}, nil)
	repo.On("PlayersModifiedSince", mock.Anything, []string{"srv-g1"}, since).
		Return([]game.GamePlayer{player}, nil)
	repo.On("RoundsModifiedSince", mock.Anything, mock.Anything, mock.Anything).Return([]game.Round{}, nil)
	repo.On("ActiveRoundIDs", mock.Anything, mock.Anything).Return([]string{}, nil)
	repo.On("ScoresModifiedSince", mock.Anything, mock.Anything, mock.Anything).Return([]game.Score{}, nil)
	repo.On("PublicIDs", mock.Anything, TableGames, []string{"srv-g1"}).
		Return(map[string]string{"srv-g1": "local-game-2"}, nil)
	repo.On("PublicIDs", mock.Anything, mock.Anything, mock.Anything).Return(map[string]string{}, nil)

	svc := newTestService(repo)

	resp, err := svc.Pull(context.Background(), deviceID, WatermarkOf(since))
	require.NoError(t, err)

	require.Len(t, resp.Changes.GamePlayers.Created, 1)
	got := resp.Changes.GamePlayers.Created[0]
	assert.Equal(t, playerClientID, got.ID)
	assert.Equal(t, "local-game-2", got.GameID, "foreign keys are translated to public identities")
}

func TestService_Push_RejectsOnConflict(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GameModifiedAfter", mock.Anything, deviceID, mock.Anything).Return(true, nil)

	svc := newTestService(repo)

	resp, err := svc.Push(context.Background(), deviceID, PushRequest{LastPulledAt: 100})
	require.NoError(t, err)

	assert.False(t, resp.OK)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "conflict")
	repo.AssertNotCalled(t, "InTx", mock.Anything)
}

func TestService_Push_CreatesNewGame(t *testing.T) {
	writer := new(MockWriter)
	repo := &MockRepository{writer: writer}
	repo.On("GameModifiedAfter", mock.Anything, deviceID, mock.Anything).Return(false, nil)
	repo.On("InTx", mock.Anything).Return(nil)

	writer.On("ResolveGameID", mock.Anything, deviceID, "local-game-1").
		Return("", ErrNotFound)
	writer.On("InsertGame", mock.Anything, mock.MatchedBy(func(g *game.Game) bool {
		return g.DeviceID == deviceID &&
			g.ClientID != nil && *g.ClientID == "local-game-1" &&
			g.ID != "" && g.ID != "local-game-1"
	})).Return(nil)

	svc := newTestService(repo)

	req := PushRequest{
		Changes: SyncChanges{
			Games: TableChanges[GameSync]{
				Created: []GameSync{{ID: "local-game-1", TargetScore: 100, Status: game.StatusActive}},
			},
		},
	}

	resp, err := svc.Push(context.Background(), deviceID, req)
	require.NoError(t, err)

	assert.True(t, resp.OK)
	assert.Empty(t, resp.Errors)
	writer.AssertExpectations(t)
}

func TestService_Push_RetriedCreateUpdatesInPlace(t *testing.T) {
	writer := new(MockWriter)
	repo := &MockRepository{writer: writer}
	repo.On("GameModifiedAfter", mock.Anything, deviceID, mock.Anything).Return(false, nil)
	repo.On("InTx", mock.Anything).Return(nil)

	writer.On("ResolveGameID", mock.Anything, deviceID, "local-game-1").
		Return("srv-1", nil)
	writer.On("UpdateGame", mock.Anything, mock.MatchedBy(func(g *game.Game) bool {
		return g.ID == "srv-1"
	})).Return(nil)

	svc := newTestService(repo)

	req := PushRequest{
		Changes: SyncChanges{
			Games: TableChanges[GameSync]{
				Created: []GameSync{{ID: "local-game-1", TargetScore: 100, Status: game.StatusActive}},
			},
		},
	}

	resp, err := svc.Push(context.Background(), deviceID, req)
	require.NoError(t, err)

	assert.True(t, resp.OK)
	writer.AssertNotCalled(t, "InsertGame", mock.Anything, mock.Anything)
}

func TestService_Push_SkipsChildWithUnresolvedParent(t *testing.T) {
	writer := new(MockWriter)
	repo := &MockRepository{writer: writer}
	repo.On("GameModifiedAfter", mock.Anything, deviceID, mock.Anything).Return(false, nil)
	repo.On("InTx", mock.Anything).Return(nil)

	// first player's game resolves, second one's does not
	writer.On("ResolveGameID", mock.Anything, deviceID, "known-game").Return("srv-g1", nil)
	writer.On("ResolveGameID", mock.Anything, deviceID, "unknown-game").Return("", ErrNotFound)
	writer.On("ResolveClientID", mock.Anything, TablePlayers, "p-1").Return("", ErrNotFound)
	writer.On("InsertPlayer", mock.Anything, mock.MatchedBy(func(p *game.GamePlayer) bool {
		return p.GameID == "srv-g1"
	})).Return(nil)

	svc := newTestService(repo)

	req := PushRequest{
		Changes: SyncChanges{
			GamePlayers: TableChanges[PlayerSync]{
				Created: []PlayerSync{
					{ID: "p-1", GameID: "known-game", Name: "Alice", Position: 1},
					{ID: "p-2", GameID: "unknown-game", Name: "Bob", Position: 2},
				},
			},
		},
	}

	resp, err := svc.Push(context.Background(), deviceID, req)
	require.NoError(t, err)

	// the unresolvable record is dropped, its siblings still commit
	assert.True(t, resp.OK)
	assert.Empty(t, resp.Errors)
	writer.AssertNumberOfCalls(t, "InsertPlayer", 1)
}

func TestService_Push_UnresolvedOptionalRefStoredNull(t *testing.T) {
	writer := new(MockWriter)
	repo := &MockRepository{writer: writer}
	repo.On("GameModifiedAfter", mock.Anything, deviceID, mock.Anything).Return(false, nil)
	repo.On("InTx", mock.Anything).Return(nil)

	writer.On("ResolveClientID", mock.Anything, TablePlayers, "ghost-player").
		Return("", ErrNotFound)
	writer.On("ResolveGameID", mock.Anything, deviceID, "local-game-1").
		Return("", ErrNotFound)
	writer.On("InsertGame", mock.Anything, mock.MatchedBy(func(g *game.Game) bool {
		return g.WinnerID == nil
	})).Return(nil)

	svc := newTestService(repo)

	winner := "ghost-player"
	req := PushRequest{
		Changes: SyncChanges{
			Games: TableChanges[GameSync]{
				Created: []GameSync{{
					ID:          "local-game-1",
					TargetScore: 100,
					Status:      game.StatusCompleted,
					WinnerID:    &winner,
				}},
			},
		},
	}

	resp, err := svc.Push(context.Background(), deviceID, req)
	require.NoError(t, err)

	assert.True(t, resp.OK)
	writer.AssertExpectations(t)
}

func TestService_Push_StoreErrorRollsBack(t *testing.T) {
	writer := new(MockWriter)
	repo := &MockRepository{writer: writer}
	repo.On("GameModifiedAfter", mock.Anything, deviceID, mock.Anything).Return(false, nil)
	repo.On("InTx", mock.Anything).Return(nil)

	writer.On("ResolveGameID", mock.Anything, deviceID, "local-game-1").
		Return("", ErrNotFound)
	writer.On("InsertGame", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	svc := newTestService(repo)

	req := PushRequest{
		Changes: SyncChanges{
			Games: TableChanges[GameSync]{
				Created: []GameSync{{ID: "local-game-1", TargetScore: 100, Status: game.StatusActive}},
			},
		},
	}

	resp, err := svc.Push(context.Background(), deviceID, req)
	require.NoError(t, err)

	assert.False(t, resp.OK)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "connection reset")
}

func TestService_Push_DeleteIsIdempotent(t *testing.T) {
	writer := new(MockWriter)
	repo := &MockRepository{writer: writer}
	repo.On("GameModifiedAfter", mock.Anything, deviceID, mock.Anything).Return(false, nil)
	repo.On("InTx", mock.Anything).Return(nil)

	writer.On("ResolveGameID", mock.Anything, deviceID, "gone-game").
		Return("", ErrNotFound)
	writer.On("ResolveGameID", mock.Anything, deviceID, "live-game").
		Return("srv-1", nil)
	writer.On("SoftDelete", mock.Anything, TableGames, "srv-1", mock.Anything).Return(nil)

	svc := newTestService(repo)

	req := PushRequest{
		Changes: SyncChanges{
			Games: TableChanges[GameSync]{
				Deleted: []string{"gone-game", "live-game"},
			},
		},
	}

	resp, err := svc.Push(context.Background(), deviceID, req)
	require.NoError(t, err)

	assert.True(t, resp.OK)
	writer.AssertNumberOfCalls(t, "SoftDelete", 1)
}

func TestService_Push_AppliesTablesInDependencyOrder(t *testing.T) {
	writer := new(MockWriter)
	repo := &MockRepository{writer: writer}
	repo.On("GameModifiedAfter", mock.Anything, deviceID, mock.Anything).Return(false, nil)
	repo.On("InTx", mock.Anything).Return(nil)

	var order []string

	writer.On("ResolveGameID", mock.Anything, deviceID, "g-1").
		Return("", ErrNotFound).Once()
	writer.On("InsertGame", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { order = append(order, "game") }).Return(nil)

	// the player's game reference resolves because the game insert ran first
	writer.On("ResolveGameID", mock.Anything, deviceID, "g-1").Return("srv-g1", nil)
	writer.On("ResolveClientID", mock.Anything, TablePlayers, "p-1").Return("", ErrNotFound)
	writer.On("InsertPlayer", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { order = append(order, "player") }).Return(nil)

	svc := newTestService(repo)

	req := PushRequest{
		Changes: SyncChanges{
			Games: TableChanges[GameSync]{
				Created: []GameSync{{ID: "g-1", TargetScore: 100, Status: game.StatusActive}},
			},
			GamePlayers: TableChanges[PlayerSync]{
				Created: []PlayerSync{{ID: "p-1", GameID: "g-1", Name: "Alice", Position: 1}},
			},
		},
	}

	resp, err := svc.Push(context.Background(), deviceID, req)
	require.NoError(t, err)

	assert.True(t, resp.OK)
	assert.Equal(t, []string{"game", "player"}, order)
}

func TestService_Push_ForeignGameWriteIsDropped(t *testing.T) {
	writer := new(MockWriter)
	repo := &MockRepository{writer: writer}
	repo.On("GameModifiedAfter", mock.Anything, deviceID, mock.Anything).Return(false, nil)
	repo.On("InTx", mock.Anything).Return(nil)

	// the identity exists but the game belongs to another device
	writer.On("ResolveGameID", mock.Anything, deviceID, "victim-game").
		Return("", ErrNotOwned)

	svc := newTestService(repo)

	req := PushRequest{
		Changes: SyncChanges{
			Games: TableChanges[GameSync]{
				Updated: []GameSync{{ID: "victim-game", TargetScore: 100, Status: game.StatusActive}},
				Deleted: []string{"victim-game"},
			},
		},
	}

	resp, err := svc.Push(context.Background(), deviceID, req)
	require.NoError(t, err)

	assert.True(t, resp.OK)
	writer.AssertNotCalled(t, "UpdateGame", mock.Anything, mock.Anything)
	writer.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Push_ForeignIdentityCreateIsDropped(t *testing.T) {
	writer := new(MockWriter)
	repo := &MockRepository{writer: writer}
	repo.On("GameModifiedAfter", mock.Anything, deviceID, mock.Anything).Return(false, nil)
	repo.On("InTx", mock.Anything).Return(nil)

	// a create colliding with another device's identity must neither
	// insert a duplicate nor update the existing game in place
	writer.On("ResolveGameID", mock.Anything, deviceID, "victim-game").
		Return("", ErrNotOwned)

	svc := newTestService(repo)

	req := PushRequest{
		Changes: SyncChanges{
			Games: TableChanges[GameSync]{
				Created: []GameSync{{ID: "victim-game", TargetScore: 100, Status: game.StatusActive}},
			},
		},
	}

	resp, err := svc.Push(context.Background(), deviceID, req)
	require.NoError(t, err)

	assert.True(t, resp.OK)
	writer.AssertNotCalled(t, "InsertGame", mock.Anything, mock.Anything)
	writer.AssertNotCalled(t, "UpdateGame", mock.Anything, mock.Anything)
}

func TestService_Push_ForeignGameParentSkipsChild(t *testing.T) {
	writer := new(MockWriter)
	repo := &MockRepository{writer: writer}
	repo.On("GameModifiedAfter", mock.Anything, deviceID, mock.Anything).Return(false, nil)
	repo.On("InTx", mock.Anything).Return(nil)

	writer.On("ResolveGameID", mock.Anything, deviceID, "victim-game").
		Return("", ErrNotOwned)

	svc := newTestService(repo)

	req := PushRequest{
		Changes: SyncChanges{
			GamePlayers: TableChanges[PlayerSync]{
				Created: []PlayerSync{{ID: "p-1", GameID: "victim-game", Name: "Mallory", Position: 1}},
			},
		},
	}

	resp, err := svc.Push(context.Background(), deviceID, req)
	require.NoError(t, err)

	assert.True(t, resp.OK)
	writer.AssertNotCalled(t, "InsertPlayer", mock.Anything, mock.Anything)
}
