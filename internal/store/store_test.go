package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"talks/internal/domain"
	"talks/internal/store"
	"talks/internal/store/storetest"

	"github.com/google/uuid"
)

func newUser(t *testing.T, st *store.Store, email string, verified bool) *domain.User {
	t.Helper()
	u := &domain.User{
		Email:        email,
		FullName:     "User " + email,
		PasswordHash: "x",
		Verified:     verified,
		LastSeen:     time.Now().UTC(),
	}
	if err := st.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestCreateDuplicateEmail(t *testing.T) {
	st := storetest.Open(t)
	newUser(t, st, "a@example.com", true)

	err := st.Users().Create(context.Background(), &domain.User{
		Email: "a@example.com", FullName: "B", PasswordHash: "x", LastSeen: time.Now(),
	})
	if !errors.Is(err, store.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestGetMissingUser(t *testing.T) {
	st := storetest.Open(t)
	if _, err := st.Users().GetByID(context.Background(), uuid.New()); !errors.Is(err, store.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if _, err := st.Users().GetByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, store.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestChallengeRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := storetest.Open(t)
	u := newUser(t, st, "c@example.com", false)

	exp := time.Now().UTC().Add(10 * time.Minute).Truncate(time.Second)
	if err := st.Users().SetChallenge(ctx, u.ID, &domain.Challenge{Kind: domain.ChallengeLogin2FA, Code: "123456", ExpiresAt: exp}); err != nil {
		t.Fatalf("set challenge: %v", err)
	}
	got, err := st.Users().GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	c := got.Challenge()
	if c == nil || c.Kind != domain.ChallengeLogin2FA || c.Code != "123456" || !c.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected challenge: %+v", c)
	}

	if err := st.Users().SetChallenge(ctx, u.ID, nil); err != nil {
		t.Fatalf("clear challenge: %v", err)
	}
	got, _ = st.Users().GetByID(ctx, u.ID)
	if got.Challenge() != nil {
		t.Fatalf("expected cleared challenge, got %+v", got.Challenge())
	}
}

func TestSetChallengeUnknownUser(t *testing.T) {
	st := storetest.Open(t)
	err := st.Users().SetChallenge(context.Background(), uuid.New(), nil)
	if !errors.Is(err, store.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestResetTokenLookupHonoursExpiry(t *testing.T) {
	ctx := context.Background()
	st := storetest.Open(t)
	u := newUser(t, st, "r@example.com", true)
	now := time.Now().UTC()

	if err := st.Users().SetResetToken(ctx, u.ID, "hash-1", now.Add(time.Hour)); err != nil {
		t.Fatalf("set reset token: %v", err)
	}
	if _, err := st.Users().GetByResetTokenHash(ctx, "hash-1", now); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if _, err := st.Users().GetByResetTokenHash(ctx, "hash-1", now.Add(2*time.Hour)); !errors.Is(err, store.ErrRecordNotFound) {
		t.Fatalf("expected expired token to miss, got %v", err)
	}

	if err := st.Users().RedeemResetToken(ctx, u.ID, "other-hash", "bad", now); !errors.Is(err, store.ErrRecordNotFound) {
		t.Fatalf("expected wrong token to miss, got %v", err)
	}
	if err := st.Users().RedeemResetToken(ctx, u.ID, "hash-1", "bad", now.Add(2*time.Hour)); !errors.Is(err, store.ErrRecordNotFound) {
		t.Fatalf("expected expired token to miss, got %v", err)
	}
	if err := st.Users().RedeemResetToken(ctx, u.ID, "hash-1", "new-hash", now); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if err := st.Users().RedeemResetToken(ctx, u.ID, "hash-1", "second-hash", now); !errors.Is(err, store.ErrRecordNotFound) {
		t.Fatalf("expected second redeem to miss, got %v", err)
	}
	if _, err := st.Users().GetByResetTokenHash(ctx, "hash-1", now); !errors.Is(err, store.ErrRecordNotFound) {
		t.Fatalf("expected token cleared by password change, got %v", err)
	}
	got, _ := st.Users().GetByID(ctx, u.ID)
	if got.PasswordHash != "new-hash" || got.ResetTokenHash != nil || got.ResetTokenExpiresAt != nil {
		t.Fatalf("unexpected user after reset: %+v", got)
	}
}

func TestDeleteExpiredUnverified(t *testing.T) {
	ctx := context.Background()
	st := storetest.Open(t)
	now := time.Now().UTC()

	stale := newUser(t, st, "stale@example.com", false)
	fresh := newUser(t, st, "fresh@example.com", false)
	verified := newUser(t, st, "ok@example.com", true)

	_ = st.Users().SetChallenge(ctx, stale.ID, &domain.Challenge{Kind: domain.ChallengeSignupConfirm, Code: "111111", ExpiresAt: now.Add(-time.Minute)})
	_ = st.Users().SetChallenge(ctx, fresh.ID, &domain.Challenge{Kind: domain.ChallengeSignupConfirm, Code: "222222", ExpiresAt: now.Add(time.Minute)})
	_ = st.Users().SetChallenge(ctx, verified.ID, &domain.Challenge{Kind: domain.ChallengeLogin2FA, Code: "333333", ExpiresAt: now.Add(-time.Minute)})

	n, err := st.Users().DeleteExpiredUnverified(ctx, "", now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged user, got %d", n)
	}
	if _, err := st.Users().GetByID(ctx, stale.ID); !errors.Is(err, store.ErrRecordNotFound) {
		t.Fatalf("stale user should be gone, got %v", err)
	}
	for _, id := range []uuid.UUID{fresh.ID, verified.ID} {
		if _, err := st.Users().GetByID(ctx, id); err != nil {
			t.Fatalf("user %s should survive: %v", id, err)
		}
	}
}

func TestConversationOrderAndMarkRead(t *testing.T) {
	ctx := context.Background()
	st := storetest.Open(t)
	a := newUser(t, st, "a@example.com", true)
	b := newUser(t, st, "b@example.com", true)
	c := newUser(t, st, "c@example.com", true)

	base := time.Now().UTC()
	msgs := []*domain.Message{
		{SenderID: a.ID, ReceiverID: b.ID, Text: "1", CreatedAt: base},
		{SenderID: b.ID, ReceiverID: a.ID, Text: "2", CreatedAt: base.Add(time.Millisecond)},
		{SenderID: a.ID, ReceiverID: b.ID, Text: "3", CreatedAt: base.Add(2 * time.Millisecond)},
		{SenderID: a.ID, ReceiverID: c.ID, Text: "other", CreatedAt: base.Add(3 * time.Millisecond)},
	}
	for _, m := range msgs {
		if err := st.Messages().Create(ctx, m); err != nil {
			t.Fatalf("create message: %v", err)
		}
	}

	ab, err := st.Messages().Conversation(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	ba, _ := st.Messages().Conversation(ctx, b.ID, a.ID)
	if len(ab) != 3 || len(ba) != 3 {
		t.Fatalf("expected 3 messages each way, got %d and %d", len(ab), len(ba))
	}
	for i, want := range []string{"1", "2", "3"} {
		if ab[i].Text != want || ba[i].ID != ab[i].ID {
			t.Fatalf("position %d: got %q", i, ab[i].Text)
		}
	}

	n, err := st.Messages().MarkRead(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
	n, _ = st.Messages().MarkRead(ctx, a.ID, b.ID)
	if n != 0 {
		t.Fatalf("second mark read should change nothing, got %d", n)
	}
	unread, _ := st.Messages().CountUnread(ctx, b.ID, a.ID)
	if unread != 1 {
		t.Fatalf("reverse direction must stay unread, got %d", unread)
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	st := storetest.Open(t)
	a := newUser(t, st, "a@example.com", true)
	b := newUser(t, st, "b@example.com", true)
	_ = st.Messages().Create(ctx, &domain.Message{SenderID: a.ID, ReceiverID: b.ID, Text: "hi", CreatedAt: time.Now()})

	counts, err := st.Reset(ctx)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if counts["users"] != 2 || counts["messages"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}
