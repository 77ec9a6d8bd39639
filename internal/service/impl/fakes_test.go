package impl

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"talks/internal/domain"
	"talks/internal/store"
	"talks/internal/store/storetest"
)

type sentCode struct {
	To   string
	Kind domain.ChallengeKind
	Code string
}

type fakeEmail struct {
	mu      sync.Mutex
	codes   []sentCode
	resets  map[string]string // to -> link
	changed []string
	err     error
}

func newFakeEmail() *fakeEmail { return &fakeEmail{resets: map[string]string{}} }

func (f *fakeEmail) SendCode(_ context.Context, to string, kind domain.ChallengeKind, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.codes = append(f.codes, sentCode{To: to, Kind: kind, Code: code})
	return nil
}

func (f *fakeEmail) SendPasswordReset(_ context.Context, to, _, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.resets[to] = link
	return nil
}

func (f *fakeEmail) SendPasswordChanged(_ context.Context, to, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changed = append(f.changed, to)
	return nil
}

func (f *fakeEmail) lastCode(t *testing.T, to string) sentCode {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.codes) - 1; i >= 0; i-- {
		if f.codes[i].To == to {
			return f.codes[i]
		}
	}
	t.Fatalf("no code sent to %s", to)
	return sentCode{}
}

type upload struct {
	Key         string
	ContentType string
	Size        int
}

type fakeUploader struct {
	mu      sync.Mutex
	uploads []upload
	err     error
}

func (f *fakeUploader) Upload(_ context.Context, key, contentType string, body []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.uploads = append(f.uploads, upload{Key: key, ContentType: contentType, Size: len(body)})
	return "https://cdn.example.com/" + key, nil
}

type pushed struct {
	UserID domain.UserID
	Event  string
	Data   any
}

type fakeNotifier struct {
	mu     sync.Mutex
	online map[domain.UserID]bool
	pushes []pushed
}

func newFakeNotifier(online ...domain.UserID) *fakeNotifier {
	n := &fakeNotifier{online: map[domain.UserID]bool{}}
	for _, id := range online {
		n.online[id] = true
	}
	return n
}

func (f *fakeNotifier) Notify(userID domain.UserID, event string, data any) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.online[userID] {
		return false
	}
	f.pushes = append(f.pushes, pushed{UserID: userID, Event: event, Data: data})
	return true
}

var errSMTPDown = errors.New("smtp down")

// fakeClock is advanced by hand.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func cheapPasswords() *PasswordServiceImpl {
	return NewPasswordServiceWithParams(Argon2Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16})
}

type authFixture struct {
	st       *store.Store
	email    *fakeEmail
	uploader *fakeUploader
	clock    *fakeClock
	codes    *CodeEngineImpl
	sessions *SessionServiceImpl
	auth     *AuthServiceImpl
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	st := storetest.Open(t)
	email := newFakeEmail()
	uploader := &fakeUploader{}
	clock := &fakeClock{t: time.Now().UTC()}
	pw := cheapPasswords()

	codes := NewCodeEngine(CodeEngineConfig{CodeTTL: 10 * time.Minute, ResetTTL: time.Hour, ClientURL: "http://localhost:5173"}, st, email, pw)
	codes.now = clock.Now
	sessions := NewSessionServiceHS256(SessionConfig{Issuer: "talks-test", TTL: time.Hour, SigningKey: []byte("test-secret")})
	auth := NewAuthServiceImpl(st, pw, sessions, codes, uploader)
	auth.now = clock.Now

	return &authFixture{st: st, email: email, uploader: uploader, clock: clock, codes: codes, sessions: sessions, auth: auth}
}
