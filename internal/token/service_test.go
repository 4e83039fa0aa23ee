package token

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/background"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/observability"
)

const testSecret = "test-secret"

type memoryStore struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{tokens: map[string]string{}}
}

func (m *memoryStore) UpsertRefreshToken(_ context.Context, userID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[userID] = token
	return nil
}

func (m *memoryStore) FindRefreshToken(_ context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[userID], nil
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) UpsertRefreshToken(ctx context.Context, userID, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

func (m *mockStore) FindRefreshToken(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

type recordingReporter struct {
	mu     sync.Mutex
	events []observability.Event
}

func (r *recordingReporter) Report(_ context.Context, ev observability.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type fixture struct {
	svc      *Service
	store    RefreshStore
	runner   *background.Runner
	reporter *recordingReporter
}

func newFixture(store RefreshStore, opts Options) fixture {
	reporter := &recordingReporter{}
	runner := background.NewRunner(4, reporter, nil)
	opts.Secret = testSecret
	return fixture{
		svc:      NewService(opts, store, runner, reporter, nil),
		store:    store,
		runner:   runner,
		reporter: reporter,
	}
}

// expiredAccessToken signs a token whose expiry already passed.
func expiredAccessToken(t *testing.T, userID string) string {
	t.Helper()
	f := newFixture(newMemoryStore(), Options{AccessTTL: -time.Minute})
	tok, err := f.svc.Issue(context.Background(), userID, false)
	require.NoError(t, err)
	return tok
}

func TestIssueAndVerify(t *testing.T) {
	f := newFixture(newMemoryStore(), Options{})

	tok, err := f.svc.Issue(context.Background(), "user-1", false)
	require.NoError(t, err)

	v := f.svc.Verify(tok)
	assert.True(t, v.Verified)
	assert.Equal(t, "user-1", v.UserID)

	stored, err := f.svc.RefreshToken(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, stored, "issue without refresh must not persist anything")
}

func TestIssueWithRefreshReplacesPreviousToken(t *testing.T) {
	store := newMemoryStore()
	f := newFixture(store, Options{})
	ctx := context.Background()

	_, err := f.svc.Issue(ctx, "user-1", true)
	require.NoError(t, err)
	first, _ := f.svc.RefreshToken(ctx, "user-1")
	require.NotEmpty(t, first)

	_, err = f.svc.Issue(ctx, "user-1", true)
	require.NoError(t, err)
	second, _ := f.svc.RefreshToken(ctx, "user-1")

	assert.NotEqual(t, first, second)
	assert.True(t, f.svc.validRefresh(second))
}

func TestIssueFailsWhenRefreshNotPersisted(t *testing.T) {
	store := &mockStore{}
	store.On("UpsertRefreshToken", mock.Anything, "user-1", mock.AnythingOfType("string")).Return(errors.New("db down")).Once()
	f := newFixture(store, Options{})

	tok, err := f.svc.Issue(context.Background(), "user-1", true)
	assert.Error(t, err)
	assert.Empty(t, tok)
	store.AssertExpectations(t)
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	f := newFixture(newMemoryStore(), Options{})
	tok, err := f.svc.Issue(context.Background(), "user-1", false)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	tamperedSig := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	otherSecret := NewService(Options{Secret: "other"}, newMemoryStore(), f.runner, nil, nil)
	foreign, err := otherSecret.Issue(context.Background(), "user-1", false)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"userId": "user-1", "exp": time.Now().Add(time.Hour).Unix()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, bad := range map[string]string{
		"tampered": tamperedSig,
		"foreign":  foreign,
		"expired":  expiredAccessToken(t, "user-1"),
		"alg none": none,
		"garbage":  "not-a-token",
		"empty":    "",
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, Verification{}, f.svc.Verify(bad))
		})
	}
}

func TestVerifyWithRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("valid access and refresh returns same token", func(t *testing.T) {
		f := newFixture(newMemoryStore(), Options{})
		tok, err := f.svc.Issue(ctx, "user-1", true)
		require.NoError(t, err)

		res := f.svc.VerifyWithRefresh(ctx, tok)

		assert.True(t, res.OK)
		assert.Equal(t, tok, res.AccessToken)
		assert.Equal(t, "user-1", res.UserID)
	})

	t.Run("valid access without refresh repairs in background", func(t *testing.T) {
		store := newMemoryStore()
		f := newFixture(store, Options{})
		tok, err := f.svc.Issue(ctx, "user-1", false)
		require.NoError(t, err)

		res := f.svc.VerifyWithRefresh(ctx, tok)
		assert.True(t, res.OK)
		assert.Equal(t, tok, res.AccessToken)

		f.runner.Wait()
		repaired, _ := store.FindRefreshToken(ctx, "user-1")
		assert.NotEmpty(t, repaired)
		assert.True(t, f.svc.validRefresh(repaired))
	})

	t.Run("expired access with refresh mints a new access token", func(t *testing.T) {
		store := newMemoryStore()
		f := newFixture(store, Options{})
		_, err := f.svc.Issue(ctx, "user-1", true)
		require.NoError(t, err)
		refreshBefore, _ := store.FindRefreshToken(ctx, "user-1")

		expired := expiredAccessToken(t, "user-1")
		res := f.svc.VerifyWithRefresh(ctx, expired)

		require.True(t, res.OK)
		assert.NotEqual(t, expired, res.AccessToken)
		assert.Equal(t, Verification{Verified: true, UserID: "user-1"}, f.svc.Verify(res.AccessToken))
		assert.Equal(t, "user-1", res.UserID)

		refreshAfter, _ := store.FindRefreshToken(ctx, "user-1")
		assert.Equal(t, refreshBefore, refreshAfter, "refresh token must be left untouched")
	})

	t.Run("expired access without refresh fails", func(t *testing.T) {
		f := newFixture(newMemoryStore(), Options{})

		res := f.svc.VerifyWithRefresh(ctx, expiredAccessToken(t, "user-1"))
		assert.Equal(t, Result{}, res)
	})

	t.Run("expired access with expired refresh fails", func(t *testing.T) {
		store := newMemoryStore()
		stale := newFixture(store, Options{RefreshTTL: -time.Hour})
		_, err := stale.svc.Issue(ctx, "user-1", true)
		require.NoError(t, err)

		f := newFixture(store, Options{})
		res := f.svc.VerifyWithRefresh(ctx, expiredAccessToken(t, "user-1"))
		assert.False(t, res.OK)
	})

	t.Run("undecodable token is reported and fails", func(t *testing.T) {
		f := newFixture(newMemoryStore(), Options{})

		res := f.svc.VerifyWithRefresh(ctx, "garbage")
		assert.False(t, res.OK)
		assert.Equal(t, 1, f.reporter.count())
	})

	t.Run("token without userId fails", func(t *testing.T) {
		f := newFixture(newMemoryStore(), Options{})
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}).
			SignedString([]byte(testSecret))
		require.NoError(t, err)

		assert.False(t, f.svc.VerifyWithRefresh(ctx, tok).OK)
	})

	t.Run("storage failure is reported and fails", func(t *testing.T) {
		store := &mockStore{}
		store.On("FindRefreshToken", mock.Anything, "user-1").Return("", errors.New("db down")).Once()
		f := newFixture(store, Options{})
		tok, err := f.svc.Issue(ctx, "user-1", false)
		require.NoError(t, err)

		res := f.svc.VerifyWithRefresh(ctx, tok)
		assert.False(t, res.OK)
		assert.Equal(t, 1, f.reporter.count())
		store.AssertExpectations(t)
	})
}

func TestRotateRefreshSoftFailure(t *testing.T) {
	store := &mockStore{}
	store.On("UpsertRefreshToken", mock.Anything, "user-1", mock.AnythingOfType("string")).Return(errors.New("db down")).Once()
	f := newFixture(store, Options{})

	tok, ok := f.svc.RotateRefresh(context.Background(), "user-1")

	assert.False(t, ok)
	assert.Empty(t, tok)
	assert.Equal(t, 1, f.reporter.count())
}

func TestBackgroundRepairFailureIsReported(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{}
	store.On("FindRefreshToken", mock.Anything, "user-1").Return("", nil).Once()
	store.On("UpsertRefreshToken", mock.Anything, "user-1", mock.AnythingOfType("string")).Return(errors.New("db down")).Once()
	f := newFixture(store, Options{})
	tok, err := f.svc.signAccess("user-1")
	require.NoError(t, err)

	res := f.svc.VerifyWithRefresh(ctx, tok)
	require.True(t, res.OK)

	f.runner.Wait()
	assert.Equal(t, 1, f.reporter.count())
	store.AssertExpectations(t)
}
