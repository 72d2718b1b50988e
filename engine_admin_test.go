package goGuard

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCheckPermission_ResolutionOrder(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	ctx := context.Background()

	// Role set.
	if !engine.CheckPermission("alice", "editor", "write_document") {
		t.Fatal("role permission must hold")
	}
	if engine.CheckPermission("alice", "viewer", "write_document") {
		t.Fatal("default deny for permissions outside the role")
	}

	// Temporary grant unions in.
	if _, err := engine.GrantTemporary(ctx, "alice", "write_document", "", time.Hour, "", "admin"); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if !engine.CheckPermission("alice", "viewer", "write_document") {
		t.Fatal("grant must satisfy the check")
	}

	// Deny override beats both.
	if err := engine.SetOverride(ctx, Override{UserID: "alice", Permission: "write_document", Allow: false, GrantedBy: "secops"}); err != nil {
		t.Fatalf("set override: %v", err)
	}
	if engine.CheckPermission("alice", "editor", "write_document") {
		t.Fatal("deny override must beat role and grant")
	}
}

func TestSetOverride_Validation(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	ctx := context.Background()

	if err := engine.SetOverride(ctx, Override{UserID: "alice", Permission: "no_such_perm", Allow: true}); !errors.Is(err, ErrOverrideInvalid) {
		t.Fatalf("expected ErrOverrideInvalid, got %v", err)
	}

	if err := engine.SetOverride(ctx, Override{UserID: "alice", Permission: "read_document", Allow: true, GrantedBy: "admin"}); err != nil {
		t.Fatalf("set override: %v", err)
	}
	if got := engine.Overrides("alice"); len(got) != 1 {
		t.Fatalf("expected 1 active override, got %d", len(got))
	}

	if !engine.RemoveOverride(ctx, "alice", "read_document", "admin") {
		t.Fatal("expected removal to succeed")
	}
	if engine.RemoveOverride(ctx, "alice", "read_document", "admin") {
		t.Fatal("second removal must report false")
	}
}

func TestRoleLifecycle(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	ctx := context.Background()

	if err := engine.CreateRole(ctx, RoleSpec{Name: "auditor", Level: 30, Permissions: []string{"read_document", "export_report"}}, "admin"); err != nil {
		t.Fatalf("create role: %v", err)
	}
	if got := engine.RoleLevel("auditor"); got != 30 {
		t.Fatalf("expected level 30, got %d", got)
	}

	names := engine.RoleNames()
	if len(names) != 4 {
		t.Fatalf("expected 4 roles, got %v", names)
	}

	if err := engine.CreateRole(ctx, RoleSpec{Name: "bad", Level: 1, Permissions: []string{"nope"}}, "admin"); err == nil {
		t.Fatal("expected error for unknown permission in role")
	}

	if !engine.RemoveRole(ctx, "auditor", "admin") {
		t.Fatal("expected removal to succeed")
	}
	if got := engine.RoleLevel("auditor"); got != -1 {
		t.Fatalf("removed role must resolve to -1, got %d", got)
	}
}

func TestAssignRole_UnionAndRevocation(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	ctx := context.Background()

	if err := engine.AssignRole(ctx, "alice", "ghost_role", "admin"); !errors.Is(err, ErrRoleUnknown) {
		t.Fatalf("expected ErrRoleUnknown, got %v", err)
	}
	if err := engine.AssignRole(ctx, "alice", "editor", "admin"); err != nil {
		t.Fatalf("assign: %v", err)
	}

	// A session role of viewer still gets editor's permissions via the
	// assigned-role union.
	if !engine.CheckPermission("alice", "viewer", "write_document") {
		t.Fatal("assigned role must union into permission checks")
	}

	if roles := engine.UserRoles("alice"); len(roles) != 1 || roles[0] != "editor" {
		t.Fatalf("expected [editor], got %v", roles)
	}

	if !engine.RevokeRole(ctx, "alice", "editor", "admin") {
		t.Fatal("expected revoke to succeed")
	}
	if engine.CheckPermission("alice", "viewer", "write_document") {
		t.Fatal("revocation must take effect immediately")
	}
}

func TestGrantLifecycle(t *testing.T) {
	engine, clock := newTestEngine(t, nil)
	ctx := context.Background()

	if _, err := engine.GrantTemporary(ctx, "alice", "no_such_perm", "", time.Hour, "", "admin"); !errors.Is(err, ErrGrantInvalid) {
		t.Fatalf("expected ErrGrantInvalid for unknown permission, got %v", err)
	}
	if _, err := engine.GrantTemporary(ctx, "alice", "delete_document", "", 0, "", "admin"); !errors.Is(err, ErrGrantInvalid) {
		t.Fatalf("expected ErrGrantInvalid for zero duration, got %v", err)
	}

	grant, err := engine.GrantTemporary(ctx, "alice", "delete_document", "doc/42", time.Hour, "cleanup", "admin")
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if got := engine.ActiveGrants("alice"); len(got) != 1 || got[0].ID != grant.ID {
		t.Fatalf("expected active grant, got %+v", got)
	}

	if err := engine.RevokeGrant(ctx, grant.ID, "admin"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := engine.RevokeGrant(ctx, grant.ID, "admin"); !errors.Is(err, ErrGrantNotFound) {
		t.Fatalf("expected ErrGrantNotFound, got %v", err)
	}

	// Expiry sweep is counted and audited.
	engine.GrantTemporary(ctx, "bob", "export_report", "", time.Minute, "", "admin")
	clock.Advance(2 * time.Minute)
	if removed := engine.CleanupExpiredGrants(ctx); removed != 1 {
		t.Fatalf("expected 1 swept, got %d", removed)
	}
	if removed := engine.CleanupExpiredGrants(ctx); removed != 0 {
		t.Fatalf("sweep must be idempotent, got %d", removed)
	}
	sweeps := engine.AuditEvents(AuditQuery{EventType: EventGrantSwept})
	if len(sweeps) != 1 || sweeps[0].Metadata["removed"] != "1" {
		t.Fatalf("expected sweep audit entry, got %+v", sweeps)
	}
}

func TestSweepExpired_CoversAllStores(t *testing.T) {
	engine, clock := newTestEngine(t, nil)
	ctx := context.Background()

	engine.SetOverride(ctx, Override{UserID: "alice", Permission: "read_document", Allow: true, ExpiresAt: clock.Now().Add(time.Minute), GrantedBy: "admin"})
	engine.GrantTemporary(ctx, "alice", "export_report", "", time.Minute, "", "admin")
	engine.AllowLogin(ctx, "alice")

	clock.Advance(time.Hour)
	overrides, grants, limiterKeys, err := engine.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if overrides != 1 {
		t.Fatalf("expected 1 override swept, got %d", overrides)
	}
	if grants != 1 {
		t.Fatalf("expected 1 grant swept, got %d", grants)
	}
	if limiterKeys != 1 {
		t.Fatalf("expected 1 stale limiter key swept, got %d", limiterKeys)
	}
}

func TestVerificationSurface(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	ctx := context.Background()
	token := startTestSession(t, engine, "alice", "viewer", SessionOptions{})

	engine.Authorize(ctx, RequestContext{SessionToken: token, Action: "read", Resource: "document"})
	engine.Authorize(ctx, RequestContext{SessionToken: token, Action: "read", Resource: "document"})

	history := engine.VerificationHistory("alice", 0)
	if len(history) != 2 {
		t.Fatalf("expected 2 recorded evaluations, got %d", len(history))
	}
	if history[0].Score != 75 {
		t.Fatalf("expected score 75, got %d", history[0].Score)
	}

	// Mean trust 75 inverts to risk 25.
	if got := engine.UserRiskScore("alice"); got != 25 {
		t.Fatalf("expected risk 25, got %d", got)
	}

	stats := engine.VerificationStats()
	if stats.Evaluations != 2 || stats.Denied != 0 || stats.Reauths != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
