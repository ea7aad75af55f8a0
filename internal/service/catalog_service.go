package service

import (
	"context"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/apperror"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/repository"
)

// CatalogService is the CRUD service of one reference table
type CatalogService[T any] interface {
	List(ctx context.Context, search string, page, limit int) ([]T, int64, error)
	Get(ctx context.Context, id uint) (*T, error)
	Create(ctx context.Context, actor Actor, entity *T) (*T, error)
	Update(ctx context.Context, actor Actor, id uint, entity *T) (*T, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type catalogService[T any, PT repository.CatalogEntity[T]] struct {
	name      string
	repo      repository.CatalogRepository[T]
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

// NewCatalogService serves the table behind repo. name is used in messages
// and audit rows, e.g. "Sede".
func NewCatalogService[T any, PT repository.CatalogEntity[T]](name string, repo repository.CatalogRepository[T], auditRepo repository.AuditRepository, txManager repository.TransactionManager) CatalogService[T] {
	return &catalogService[T, PT]{name: name, repo: repo, auditRepo: auditRepo, txManager: txManager}
}

func (s *catalogService[T, PT]) List(ctx context.Context, search string, page, limit int) ([]T, int64, error) {
	items, total, err := s.repo.List(ctx, search, page, limit)
	if err != nil {
		return nil, 0, apperror.FromDB(err, s.name)
	}
	return items, total, nil
}

func (s *catalogService[T, PT]) Get(ctx context.Context, id uint) (*T, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, s.name)
	}
	return item, nil
}

func (s *catalogService[T, PT]) Create(ctx context.Context, actor Actor, entity *T) (*T, error) {
	pt := PT(entity)
	pt.SetID(0)
	if err := pt.Validate(); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, entity); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateCatalog, pt.GetID(), s.name, map[string]interface{}{
			"catalogo": s.name,
		})
	})
	if err != nil {
		return nil, apperror.FromDB(err, s.name)
	}
	return s.Get(ctx, pt.GetID())
}

func (s *catalogService[T, PT]) Update(ctx context.Context, actor Actor, id uint, entity *T) (*T, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	pt := PT(entity)
	pt.SetID(id)
	if err := pt.Validate(); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, entity); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionUpdateCatalog, id, s.name, map[string]interface{}{
			"catalogo": s.name,
		})
	})
	if err != nil {
		return nil, apperror.FromDB(err, s.name)
	}
	return s.Get(ctx, id)
}

func (s *catalogService[T, PT]) Delete(ctx context.Context, actor Actor, id uint) error {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, id); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteCatalog, id, s.name, map[string]interface{}{
			"catalogo": s.name,
		})
	})
	if err != nil {
		return apperror.FromDB(err, s.name)
	}
	return nil
}
