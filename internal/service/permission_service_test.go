package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"
)

func TestPermissionCacheTTL(t *testing.T) {
	roles := newFakeRoleRepo()
	roles.perms[model.RoleCompras] = []string{model.PermListarCompras, model.PermAprobarCompras}

	svc := NewPermissionService(roles, time.Minute).(*permissionService)
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	ok, err := svc.HasPermission(ctx, model.RoleCompras, model.PermAprobarCompras)
	if err != nil || !ok {
		t.Fatalf("expected permission, got %v (%v)", ok, err)
	}
	ok, _ = svc.HasPermission(ctx, model.RoleCompras, model.PermAprobarGerencia)
	if ok {
		t.Fatalf("compras must not approve as gerencia")
	}
	if roles.lookups != 1 {
		t.Fatalf("expected one lookup while cached, got %d", roles.lookups)
	}

	// a grant is visible once the entry expires
	roles.perms[model.RoleCompras] = append(roles.perms[model.RoleCompras], model.PermAprobarGerencia)
	now = now.Add(2 * time.Minute)
	ok, _ = svc.HasPermission(ctx, model.RoleCompras, model.PermAprobarGerencia)
	if !ok || roles.lookups != 2 {
		t.Fatalf("expected refreshed grant, got %v after %d lookups", ok, roles.lookups)
	}

	svc.ClearCache(model.RoleCompras)
	names, err := svc.Permissions(ctx, model.RoleCompras)
	if err != nil || len(names) != 3 || roles.lookups != 3 {
		t.Fatalf("expected reload after clear, got %v (%v) after %d lookups", names, err, roles.lookups)
	}
}

func TestPermissionAdminAndEmptyRole(t *testing.T) {
	roles := newFakeRoleRepo()
	roles.lookupErr = errors.New("db down")
	svc := NewPermissionService(roles, 0)
	ctx := context.Background()

	ok, err := svc.HasPermission(ctx, model.RoleAdmin, model.PermRolesGestionar)
	if err != nil || !ok {
		t.Fatalf("admin must pass without lookup, got %v (%v)", ok, err)
	}
	ok, err = svc.HasPermission(ctx, "", model.PermDashboardVer)
	if err != nil || ok {
		t.Fatalf("empty role must be denied, got %v (%v)", ok, err)
	}
	if _, err := svc.HasPermission(ctx, model.RoleGerencia, model.PermDashboardVer); err == nil {
		t.Fatalf("expected lookup error")
	}
	if roles.lookups != 1 {
		t.Fatalf("expected a single failing lookup, got %d", roles.lookups)
	}
}
