package resolver

import (
	"testing"
	"time"

	"github.com/kharven/goGuard/permission"
)

type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }
func (c *testClock) SetHour(h int) {
	c.now = time.Date(2025, 6, 2, h, 0, 0, 0, time.UTC)
}

func newTestResolver(t *testing.T) (*Resolver, *testClock) {
	t.Helper()

	reg, err := permission.NewRegistry(64, true)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	for _, name := range []string{"read_document", "write_document", "delete_document", "export_report"} {
		if _, err := reg.Register(name); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	reg.Freeze()

	roles := permission.NewRoleSet(reg)
	if err := roles.Register("viewer", 10, []string{"read_document"}); err != nil {
		t.Fatalf("register viewer: %v", err)
	}
	if err := roles.Register("editor", 50, []string{"read_document", "write_document"}); err != nil {
		t.Fatalf("register editor: %v", err)
	}
	if err := roles.Register("admin", 80, []string{"read_document", "write_document", "delete_document"}); err != nil {
		t.Fatalf("register admin: %v", err)
	}

	clock := newTestClock()
	r := New(reg, roles, Config{
		AdminLevel: 80,
		DefaultRolePermissions: map[string][]string{
			"intern": {"read_document"},
		},
		Now: clock.Now,
	})
	return r, clock
}

func TestResolver_RolePermission(t *testing.T) {
	r, _ := newTestResolver(t)

	ok, rule := r.HasPermission("u1", "editor", "write_document")
	if !ok || rule != RuleRole {
		t.Fatalf("expected role grant, got ok=%v rule=%s", ok, rule)
	}

	ok, rule = r.HasPermission("u1", "viewer", "write_document")
	if ok || rule != RuleNone {
		t.Fatalf("expected default deny, got ok=%v rule=%s", ok, rule)
	}
}

func TestResolver_DefaultTableFallback(t *testing.T) {
	r, _ := newTestResolver(t)

	ok, rule := r.HasPermission("u1", "intern", "read_document")
	if !ok || rule != RuleDefault {
		t.Fatalf("expected default-table grant, got ok=%v rule=%s", ok, rule)
	}

	if ok, _ := r.HasPermission("u1", "intern", "write_document"); ok {
		t.Fatal("default table must not grant unlisted permissions")
	}
}

func TestResolver_DenyOverrideBeatsRoleGrant(t *testing.T) {
	r, _ := newTestResolver(t)

	err := r.SetOverride(Override{
		UserID:     "u1",
		Permission: "write_document",
		Allow:      false,
		Reason:     "incident 4821",
		GrantedBy:  "secops",
	})
	if err != nil {
		t.Fatalf("set override: %v", err)
	}

	ok, rule := r.HasPermission("u1", "editor", "write_document")
	if ok || rule != RuleOverrideDeny {
		t.Fatalf("expected deny override to win, got ok=%v rule=%s", ok, rule)
	}
	// Other users are unaffected.
	if ok, _ := r.HasPermission("u2", "editor", "write_document"); !ok {
		t.Fatal("override must be scoped to its user")
	}
}

func TestResolver_GrantOverrideBeatsRoleAbsence(t *testing.T) {
	r, _ := newTestResolver(t)

	if err := r.SetOverride(Override{UserID: "u1", Permission: "delete_document", Allow: true, GrantedBy: "admin"}); err != nil {
		t.Fatalf("set override: %v", err)
	}

	ok, rule := r.HasPermission("u1", "viewer", "delete_document")
	if !ok || rule != RuleOverrideGrant {
		t.Fatalf("expected grant override, got ok=%v rule=%s", ok, rule)
	}
}

func TestResolver_NewestActiveOverrideWins(t *testing.T) {
	r, clock := newTestResolver(t)

	r.SetOverride(Override{UserID: "u1", Permission: "write_document", Allow: false, CreatedAt: clock.Now()})
	clock.Advance(time.Minute)
	r.SetOverride(Override{UserID: "u1", Permission: "write_document", Allow: true, CreatedAt: clock.Now()})

	ok, rule := r.HasPermission("u1", "viewer", "write_document")
	if !ok || rule != RuleOverrideGrant {
		t.Fatalf("expected newest override to win, got ok=%v rule=%s", ok, rule)
	}
}

func TestResolver_ExpiredOverrideIgnoredAndDeleted(t *testing.T) {
	r, clock := newTestResolver(t)

	r.SetOverride(Override{
		UserID:     "u1",
		Permission: "delete_document",
		Allow:      true,
		ExpiresAt:  clock.Now().Add(time.Hour),
	})
	clock.Advance(2 * time.Hour)

	if ok, _ := r.HasPermission("u1", "viewer", "delete_document"); ok {
		t.Fatal("expired override must not grant")
	}
	// The lookup lazily deleted it; cleanup has nothing left to do.
	if removed := r.CleanupExpired(); removed != 0 {
		t.Fatalf("expected 0 removed after lazy deletion, got %d", removed)
	}
}

func TestResolver_SetOverrideValidation(t *testing.T) {
	r, clock := newTestResolver(t)

	if err := r.SetOverride(Override{UserID: "u1", Permission: "no_such_perm", Allow: true}); err != ErrUnknownPermission {
		t.Fatalf("expected ErrUnknownPermission, got %v", err)
	}
	err := r.SetOverride(Override{
		UserID:     "u1",
		Permission: "read_document",
		Allow:      true,
		CreatedAt:  clock.Now(),
		ExpiresAt:  clock.Now().Add(-time.Minute),
	})
	if err != ErrOverrideExpiry {
		t.Fatalf("expected ErrOverrideExpiry, got %v", err)
	}
}

func TestResolver_RemoveOverride(t *testing.T) {
	r, _ := newTestResolver(t)

	r.SetOverride(Override{UserID: "u1", Permission: "write_document", Allow: false})
	if !r.RemoveOverride("u1", "write_document") {
		t.Fatal("expected removal to succeed")
	}
	if r.RemoveOverride("u1", "write_document") {
		t.Fatal("second removal must report false")
	}
	if ok, _ := r.HasPermission("u1", "editor", "write_document"); !ok {
		t.Fatal("role grant must apply again after override removal")
	}
}

func TestResolver_CleanupExpiredCountsRemovals(t *testing.T) {
	r, clock := newTestResolver(t)

	r.SetOverride(Override{UserID: "u1", Permission: "read_document", Allow: true, ExpiresAt: clock.Now().Add(time.Minute)})
	r.SetOverride(Override{UserID: "u2", Permission: "write_document", Allow: false, ExpiresAt: clock.Now().Add(time.Minute)})
	r.SetOverride(Override{UserID: "u3", Permission: "read_document", Allow: true})

	clock.Advance(time.Hour)
	if removed := r.CleanupExpired(); removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if removed := r.CleanupExpired(); removed != 0 {
		t.Fatalf("cleanup must be idempotent, got %d", removed)
	}
	if got := r.Overrides("u3"); len(got) != 1 {
		t.Fatalf("permanent override must survive cleanup, got %d", len(got))
	}
}

func TestResolver_CanAccessResourceOwnership(t *testing.T) {
	r, _ := newTestResolver(t)

	sub := Subject{UserID: "u1", Role: "editor"}
	attrs := ResourceAttributes{OwnerID: "u2"}

	ok, rule := r.CanAccessResource(sub, "write", "document", attrs)
	if ok || rule != RuleOwnership {
		t.Fatalf("expected ownership denial, got ok=%v rule=%s", ok, rule)
	}

	attrs.OwnerID = "u1"
	if ok, _ := r.CanAccessResource(sub, "write", "document", attrs); !ok {
		t.Fatal("owner must pass the ownership gate")
	}
}

func TestResolver_AdminBypassesOwnershipAndTeamOnly(t *testing.T) {
	r, _ := newTestResolver(t)

	admin := Subject{UserID: "boss", Role: "admin", IP: "10.0.0.9"}
	attrs := ResourceAttributes{
		OwnerID: "someone_else",
		TeamID:  "other_team",
	}
	if ok, _ := r.CheckGates(admin, attrs); !ok {
		t.Fatal("admin must bypass ownership and team scoping")
	}

	// Attribute gates still bind admins.
	attrs.IPAllowList = []string{"192.168.1.1"}
	ok, rule := r.CheckGates(admin, attrs)
	if ok || rule != RuleIPList {
		t.Fatalf("expected IP gate to bind admin, got ok=%v rule=%s", ok, rule)
	}
}

func TestResolver_TeamGate(t *testing.T) {
	r, _ := newTestResolver(t)

	sub := Subject{UserID: "u1", Role: "editor", TeamID: "payments"}
	ok, rule := r.CheckGates(sub, ResourceAttributes{TeamID: "fraud"})
	if ok || rule != RuleTeam {
		t.Fatalf("expected team denial, got ok=%v rule=%s", ok, rule)
	}
	if ok, _ := r.CheckGates(sub, ResourceAttributes{TeamID: "payments"}); !ok {
		t.Fatal("matching team must pass")
	}
}

func TestResolver_HoursGateWrapsMidnight(t *testing.T) {
	r, clock := newTestResolver(t)

	window := &HourRange{From: 22, To: 6}
	sub := Subject{UserID: "u1", Role: "editor"}

	clock.SetHour(23)
	if ok, _ := r.CheckGates(sub, ResourceAttributes{AllowedHours: window}); !ok {
		t.Fatal("23:00 must be inside a 22-6 window")
	}
	clock.SetHour(3)
	if ok, _ := r.CheckGates(sub, ResourceAttributes{AllowedHours: window}); !ok {
		t.Fatal("03:00 must be inside a 22-6 window")
	}
	clock.SetHour(12)
	ok, rule := r.CheckGates(sub, ResourceAttributes{AllowedHours: window})
	if ok || rule != RuleHours {
		t.Fatalf("expected hours denial at noon, got ok=%v rule=%s", ok, rule)
	}
}

func TestResolver_DepartmentGate(t *testing.T) {
	r, _ := newTestResolver(t)

	sub := Subject{UserID: "u1", Role: "editor", Department: "finance"}
	if ok, _ := r.CheckGates(sub, ResourceAttributes{RequiredDepartment: "finance"}); !ok {
		t.Fatal("matching department must pass")
	}
	ok, rule := r.CheckGates(sub, ResourceAttributes{RequiredDepartment: "legal"})
	if ok || rule != RuleDepartment {
		t.Fatalf("expected department denial, got ok=%v rule=%s", ok, rule)
	}
}

func TestHourRange_EqualEndpointsAlwaysContain(t *testing.T) {
	h := HourRange{From: 9, To: 9}
	for hour := 0; hour < 24; hour++ {
		if !h.Contains(hour) {
			t.Fatalf("degenerate range must contain hour %d", hour)
		}
	}
}
