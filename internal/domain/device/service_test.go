package device

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

// MockRepository is a mock implementation of the Repository interface for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Upsert(ctx context.Context, id string) (*Device, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Device), args.Error(1)
}

func (m *MockRepository) Find(ctx context.Context, id string) (*Device, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Device), args.Error(1)
}

func (m *MockRepository) TouchLastSeen(ctx context.Context, id string, seen time.Time) error {
	args := m.Called(ctx, id, seen)
	return args.Error(0)
}

const (
	testDeviceID = "0f1e2d3c-4b5a-6978-8796-a5b4c3d2e1f0"
	testSecret   = "test-secret"
)

func newTestService(repo *MockRepository) *Service {
	return NewService(repo, slog.Default(), testSecret, 30)
}

func TestService_Register(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Upsert", mock.Anything, testDeviceID).
		Return(&Device{ID: testDeviceID}, nil)

	svc := newTestService(repo)

	token, err := svc.Register(context.Background(), testDeviceID)
	require.NoError(t, err)

	assert.NotEmpty(t, token.AccessToken)
	assert.Equal(t, 30*24*60*60, token.ExpiresIn)
}

func TestService_Register_RejectsNonUUID(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), "not-a-uuid")

	assert.ErrorIs(t, err, ErrInvalidID)
	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestService_ValidateRoundTrip(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Upsert", mock.Anything, testDeviceID).
		Return(&Device{ID: testDeviceID}, nil)
	repo.On("Find", mock.Anything, testDeviceID).
		Return(&Device{ID: testDeviceID}, nil)
	repo.On("TouchLastSeen", mock.Anything, testDeviceID, mock.Anything).Return(nil)

	svc := newTestService(repo)

	token, err := svc.Register(context.Background(), testDeviceID)
	require.NoError(t, err)

	got, err := svc.Validate(context.Background(), token.AccessToken)
	require.NoError(t, err)

	assert.Equal(t, testDeviceID, got)
	repo.AssertCalled(t, "TouchLastSeen", mock.Anything, testDeviceID, mock.Anything)
}

func TestService_Validate_BadToken(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	_, err := svc.Validate(context.Background(), "garbage.token.here")

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_Validate_WrongSecret(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Upsert", mock.Anything, testDeviceID).
		Return(&Device{ID: testDeviceID}, nil)

	issuer := newTestService(repo)
	token, err := issuer.Register(context.Background(), testDeviceID)
	require.NoError(t, err)

	verifier := NewService(repo, slog.Default(), "different-secret", 30)

	_, err = verifier.Validate(context.Background(), token.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_Validate_UnknownDevice(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Upsert", mock.Anything, testDeviceID).
		Return(&Device{ID: testDeviceID}, nil)
	repo.On("Find", mock.Anything, testDeviceID).Return(nil, ErrNotFound)

	svc := newTestService(repo)

	token, err := svc.Register(context.Background(), testDeviceID)
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), token.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_Refresh(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Find", mock.Anything, testDeviceID).
		Return(&Device{ID: testDeviceID}, nil)

	svc := newTestService(repo)

	token, err := svc.Refresh(context.Background(), testDeviceID)
	require.NoError(t, err)

	assert.NotEmpty(t, token.AccessToken)
}

func TestService_Refresh_UnknownDevice(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Find", mock.Anything, testDeviceID).Return(nil, ErrNotFound)

	svc := newTestService(repo)

	_, err := svc.Refresh(context.Background(), testDeviceID)
	assert.ErrorIs(t, err, ErrNotFound)
}
