package session

import (
	"context"
	"testing"
	"time"
)

type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore(t *testing.T) (*Store, *testClock) {
	t.Helper()
	clock := newTestClock()
	reg := NewMemoryRegistry(MemoryConfig{Now: clock.Now})
	store := NewStore(reg, Config{
		Timeout:         30 * time.Minute,
		RememberTimeout: 30 * 24 * time.Hour,
		FreshAuthWindow: 5 * time.Minute,
		Now:             clock.Now,
	})
	return store, clock
}

func TestStore_CreateAndValidate(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	rec, err := store.Create(ctx, "u1", "editor", "203.0.113.7", "fp-1", false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.SessionID == "" {
		t.Fatal("expected generated session id")
	}
	if !rec.FreshAuthAt.Equal(rec.CreatedAt) {
		t.Fatal("creation must count as fresh authentication")
	}

	res, err := store.Validate(ctx, rec.SessionID, "203.0.113.7")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !res.Valid() || res.Reason != ReasonOK {
		t.Fatalf("expected valid session, got %s", res.Reason)
	}
	if res.Record.UserID != "u1" || res.Record.Role != "editor" {
		t.Fatalf("unexpected record: %+v", res.Record)
	}
	if res.IPMismatch {
		t.Fatal("same IP must not flag mismatch")
	}
}

func TestStore_ValidateUnknownID(t *testing.T) {
	store, _ := newTestStore(t)

	res, err := store.Validate(context.Background(), "no-such-id", "")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if res.Valid() || res.Reason != ReasonNotFound {
		t.Fatalf("expected not_found, got %s", res.Reason)
	}
}

func TestStore_IdleTimeoutExpiresSession(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	rec, _ := store.Create(ctx, "u1", "editor", "", "", false)

	clock.Advance(29 * time.Minute)
	if res, _ := store.Validate(ctx, rec.SessionID, ""); !res.Valid() {
		t.Fatal("session must survive inside the idle window")
	}

	// The validate above slid the window; another 31 minutes kills it.
	clock.Advance(31 * time.Minute)
	res, err := store.Validate(ctx, rec.SessionID, "")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if res.Valid() || res.Reason != ReasonExpired {
		t.Fatalf("expected expired, got %s", res.Reason)
	}

	// Expired ids read as gone, not invalidated: the id aged out
	// rather than being revoked.
	res, _ = store.Validate(ctx, rec.SessionID, "")
	if res.Reason != ReasonNotFound {
		t.Fatalf("expected not_found after expiry cleanup, got %s", res.Reason)
	}
}

func TestStore_ActivitySlidesWindow(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	rec, _ := store.Create(ctx, "u1", "editor", "", "", false)

	// Touch every 20 minutes for two hours; the session never times out.
	for i := 0; i < 6; i++ {
		clock.Advance(20 * time.Minute)
		if res, _ := store.Validate(ctx, rec.SessionID, ""); !res.Valid() {
			t.Fatalf("touch %d: session expired despite activity", i+1)
		}
	}
}

func TestStore_RememberExtendsTimeout(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	rec, _ := store.Create(ctx, "u1", "editor", "", "", true)

	clock.Advance(29 * 24 * time.Hour)
	if res, _ := store.Validate(ctx, rec.SessionID, ""); !res.Valid() {
		t.Fatal("remembered session must survive 29 days idle")
	}

	clock.Advance(31 * 24 * time.Hour)
	if res, _ := store.Validate(ctx, rec.SessionID, ""); res.Reason != ReasonExpired {
		t.Fatalf("expected expiry past remember timeout, got %s", res.Reason)
	}
}

func TestStore_IPDriftIsAdvisory(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	rec, _ := store.Create(ctx, "u1", "editor", "203.0.113.7", "", false)

	// Same /24: no drift.
	res, _ := store.Validate(ctx, rec.SessionID, "203.0.113.200")
	if !res.Valid() || res.IPMismatch {
		t.Fatalf("same /24 must not drift, got valid=%v mismatch=%v", res.Valid(), res.IPMismatch)
	}

	// Different /24: flagged but still valid.
	res, _ = store.Validate(ctx, rec.SessionID, "198.51.100.9")
	if !res.Valid() {
		t.Fatal("IP drift must never invalidate on its own")
	}
	if !res.IPMismatch {
		t.Fatal("expected mismatch flag for a different /24")
	}

	// An unparseable caller address never counts as drift.
	res, _ = store.Validate(ctx, rec.SessionID, "not-an-ip")
	if res.IPMismatch {
		t.Fatal("unparseable address must not flag drift")
	}
}

func TestStore_RotatePreservesStateAndKillsOldID(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	rec, _ := store.Create(ctx, "u1", "editor", "203.0.113.7", "fp-1", true)
	created := rec.CreatedAt
	clock.Advance(time.Minute)

	next, err := store.Rotate(ctx, rec.SessionID)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if next.SessionID == rec.SessionID {
		t.Fatal("rotation must mint a new id")
	}
	if next.UserID != "u1" || next.Role != "editor" || !next.Remember {
		t.Fatalf("rotation must carry session state, got %+v", next)
	}
	if next.DeviceFingerprint != "fp-1" || next.IP != "203.0.113.7" {
		t.Fatal("rotation must carry binding attributes")
	}
	if !next.CreatedAt.Equal(created) {
		t.Fatal("rotation must not restamp creation time")
	}

	res, _ := store.Validate(ctx, rec.SessionID, "")
	if res.Reason != ReasonInvalidated {
		t.Fatalf("old id must be invalidated, got %s", res.Reason)
	}
	if res, _ := store.Validate(ctx, next.SessionID, ""); !res.Valid() {
		t.Fatal("new id must validate")
	}
}

func TestStore_RotateDeadSessionFails(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	rec, _ := store.Create(ctx, "u1", "editor", "", "", false)
	store.Destroy(ctx, rec.SessionID)

	if _, err := store.Rotate(ctx, rec.SessionID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound rotating a destroyed session, got %v", err)
	}
}

func TestStore_DestroyAllCountsSessions(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	a, _ := store.Create(ctx, "u1", "editor", "", "", false)
	b, _ := store.Create(ctx, "u1", "editor", "", "", false)
	other, _ := store.Create(ctx, "u2", "viewer", "", "", false)

	ids, err := store.Sessions(ctx, "u1")
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 live sessions, got %d", len(ids))
	}

	killed, err := store.DestroyAll(ctx, "u1")
	if err != nil {
		t.Fatalf("destroy all: %v", err)
	}
	if killed != 2 {
		t.Fatalf("expected 2 killed, got %d", killed)
	}

	for _, id := range []string{a.SessionID, b.SessionID} {
		if res, _ := store.Validate(ctx, id, ""); res.Reason != ReasonInvalidated {
			t.Fatalf("session %s: expected invalidated, got %s", id, res.Reason)
		}
	}
	if res, _ := store.Validate(ctx, other.SessionID, ""); !res.Valid() {
		t.Fatal("other user's session must survive")
	}
}

func TestStore_FreshAuthWindow(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	rec, _ := store.Create(ctx, "u1", "editor", "", "", false)

	fresh, err := store.IsFresh(ctx, rec.SessionID)
	if err != nil {
		t.Fatalf("is fresh: %v", err)
	}
	if !fresh {
		t.Fatal("newly created session must be fresh")
	}

	clock.Advance(6 * time.Minute)
	if fresh, _ := store.IsFresh(ctx, rec.SessionID); fresh {
		t.Fatal("session must go stale past the window")
	}

	if err := store.RefreshFreshAuth(ctx, rec.SessionID); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if fresh, _ := store.IsFresh(ctx, rec.SessionID); !fresh {
		t.Fatal("restamped session must be fresh again")
	}
}

func TestIPDrifted_IPv6ComparesSite(t *testing.T) {
	if ipDrifted("2001:db8:1:2::1", "2001:db8:1:ffff::9") {
		t.Fatal("same /48 must not drift")
	}
	if !ipDrifted("2001:db8:1::1", "2001:db9:2::1") {
		t.Fatal("different /48 must drift")
	}
	if !ipDrifted("203.0.113.7", "2001:db8::1") {
		t.Fatal("family change must drift")
	}
}
