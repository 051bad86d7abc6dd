package device

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

type Servicer interface {
	// Register creates or refreshes the device row and issues a token.
	Register(ctx context.Context, deviceID string) (*Token, error)

	// Refresh issues a fresh token for an already authenticated device.
	Refresh(ctx context.Context, deviceID string) (*Token, error)

	// Validate checks a bearer token and returns the device identity
	// it was issued to, bumping the device's last-seen stamp.
	Validate(ctx context.Context, token string) (string, error)

	Get(ctx context.Context, deviceID string) (*Device, error)
}

type Service struct {
	repo       Repository
	log        *slog.Logger
	secret     []byte
	expireDays int
	now        func() time.Time
}

func NewService(repo Repository, log *slog.Logger, secret string, expireDays int) *Service {
	return &Service{
		repo:       repo,
		log:        log.With("component", "device_service"),
		secret:     []byte(secret),
		expireDays: expireDays,
		now:        time.Now,
	}
}

func (s *Service) Register(ctx context.Context, deviceID string) (*Token, error) {
	if _, err := uuid.Parse(deviceID); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, deviceID)
	}

	if _, err := s.repo.Upsert(ctx, deviceID); err != nil {
		return nil, fmt.Errorf("register device: %w", err)
	}

	s.log.Info("device registered", "device_id", deviceID)
	return s.issue(deviceID)
}

func (s *Service) Refresh(ctx context.Context, deviceID string) (*Token, error) {
	if _, err := s.repo.Find(ctx, deviceID); err != nil {
		return nil, err
	}
	return s.issue(deviceID)
}

func (s *Service) Validate(ctx context.Context, token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	if _, err := s.repo.Find(ctx, claims.Subject); err != nil {
		return "", ErrInvalidToken
	}

	if err := s.repo.TouchLastSeen(ctx, claims.Subject, s.now().UTC()); err != nil {
		s.log.Warn("failed to update last seen", "device_id", claims.Subject, "error", err)
	}

	return claims.Subject, nil
}

func (s *Service) Get(ctx context.Context, deviceID string) (*Device, error) {
	return s.repo.Find(ctx, deviceID)
}

func (s *Service) issue(deviceID string) (*Token, error) {
	lifetime := time.Duration(s.expireDays) * 24 * time.Hour
	now := s.now().UTC()

	claims := jwt.RegisteredClaims{
		Subject:   deviceID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &Token{
		AccessToken: signed,
		ExpiresIn:   int(lifetime.Seconds()),
	}, nil
}
