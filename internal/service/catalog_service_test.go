package service

import (
	"context"
	"testing"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/apperror"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"

	"gorm.io/gorm"
)

func TestCatalogServiceCRUD(t *testing.T) {
	repo := newFakeCatalog[model.Sede]()
	audit := &fakeAuditRepo{}
	svc := NewCatalogService[model.Sede]("Sede", repo, audit, fakeTx{})
	ctx := context.Background()
	actor := Actor{UserID: 4, Role: model.RoleAdmin}

	_, err := svc.Create(ctx, actor, &model.Sede{Nombre: "   "})
	expectKind(t, err, apperror.KindValidation)

	created, err := svc.Create(ctx, actor, &model.Sede{Nombre: " Sede Norte "})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID == 0 || created.Nombre != "Sede Norte" {
		t.Fatalf("unexpected sede %+v", created)
	}

	updated, err := svc.Update(ctx, actor, created.ID, &model.Sede{Nombre: "Sede Sur"})
	if err != nil || updated.ID != created.ID || updated.Nombre != "Sede Sur" {
		t.Fatalf("unexpected update %+v (%v)", updated, err)
	}
	_, err = svc.Update(ctx, actor, 99, &model.Sede{Nombre: "Otra"})
	expectKind(t, err, apperror.KindNotFound)

	items, total, err := svc.List(ctx, "", 1, 10)
	if err != nil || total != 1 || len(items) != 1 {
		t.Fatalf("expected one sede, got %d (%v)", total, err)
	}

	if err := svc.Delete(ctx, actor, created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	_, err = svc.Get(ctx, created.ID)
	expectKind(t, err, apperror.KindNotFound)

	want := []string{model.ActionCreateCatalog, model.ActionUpdateCatalog, model.ActionDeleteCatalog}
	got := audit.actions()
	if len(got) != len(want) {
		t.Fatalf("expected audit %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected audit %v, got %v", want, got)
		}
	}
}

func TestCatalogDeleteReferencedRow(t *testing.T) {
	repo := newFakeCatalog[model.Producto](10)
	repo.deleteErr = gorm.ErrForeignKeyViolated
	audit := &fakeAuditRepo{}
	svc := NewCatalogService[model.Producto]("Producto", repo, audit, fakeTx{})

	err := svc.Delete(context.Background(), Actor{UserID: 4}, 10)
	expectKind(t, err, apperror.KindConflict)
	if len(audit.actions()) != 0 {
		t.Fatalf("failed delete must not be audited, got %v", audit.actions())
	}
	if _, err := svc.Get(context.Background(), 10); err != nil {
		t.Fatalf("referenced producto must remain: %v", err)
	}
}
