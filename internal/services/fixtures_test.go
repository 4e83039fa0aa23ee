package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/background"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/caller"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/credential"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/identity"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/models"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/observability"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/repository"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/testutil"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/token"
)

const testBlobRoot = "https://files.example.com/images/"

type recordingReporter struct {
	mu     sync.Mutex
	events []observability.Event
}

func (r *recordingReporter) Report(_ context.Context, ev observability.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingReporter) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Message)
	}
	return out
}

type fakeBlob struct {
	mu         sync.Mutex
	uploads    map[string]string
	removed    []string
	failUpload bool
	failRemove bool
}

func newFakeBlob() *fakeBlob {
	return &fakeBlob{uploads: map[string]string{}}
}

func (b *fakeBlob) Upload(_ context.Context, r io.Reader, _ int64, _ string, destDir, destFile string) (string, error) {
	if b.failUpload {
		return "", errors.New("storage unavailable")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	u := testBlobRoot + destDir + "/" + destFile
	b.uploads[u] = string(data)
	return u, nil
}

func (b *fakeBlob) Remove(_ context.Context, rawURL string) (string, error) {
	if !strings.HasPrefix(rawURL, testBlobRoot) {
		return "", nil
	}
	if b.failRemove {
		return "", errors.New("remove denied")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removed = append(b.removed, rawURL)
	return rawURL, nil
}

func (b *fakeBlob) removedURLs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.removed...)
}

type fakeProvider struct {
	kind models.AuthType
	id   *identity.ExternalIdentity
	err  error
}

func (p fakeProvider) Kind() models.AuthType { return p.kind }

func (p fakeProvider) Verify(_ context.Context, tok string) (*identity.ExternalIdentity, error) {
	if p.err != nil {
		return nil, p.err
	}
	if tok == "" {
		return nil, identity.ErrEmptyToken
	}
	id := *p.id
	return &id, nil
}

type fixture struct {
	repo     *repository.UserRepository
	tokens   *token.Service
	runner   *background.Runner
	reporter *recordingReporter
	blob     *fakeBlob
	accounts *AccountService
	social   *SocialService
	clock    *clock
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newFixture(t *testing.T, providers ...identity.Provider) *fixture {
	t.Helper()

	f := &fixture{
		repo:     repository.NewUserRepository(testutil.NewDB(t)),
		reporter: &recordingReporter{},
		blob:     newFakeBlob(),
		clock:    &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.runner = background.NewRunner(4, f.reporter, nil)
	t.Cleanup(f.runner.Wait)

	f.tokens = token.NewService(token.Options{Secret: "test-secret"}, f.repo, f.runner, f.reporter, nil)

	f.accounts = NewAccountService(f.repo, f.tokens, credential.NewCodecWithCost(4), f.blob, f.runner, f.reporter, nil)
	f.accounts.now = f.clock.Now

	f.social = NewSocialService(f.repo, f.tokens, identity.NewRegistry(providers...), f.reporter, nil)
	f.social.now = f.clock.Now
	return f
}

func anon() caller.Info {
	return caller.Info{Locale: language.Korean, CorrelationID: "req-1"}
}

func as(userID string) caller.Info {
	return anon().WithUser(userID)
}

func ptr[T any](v T) *T { return &v }
