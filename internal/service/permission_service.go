package service

import (
	"context"
	"sync"
	"time"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/repository"
)

const DefaultPermissionTTL = 5 * time.Minute

// PermissionService answers role -> permission questions
type PermissionService interface {
	HasPermission(ctx context.Context, role, permission string) (bool, error)
	Permissions(ctx context.Context, role string) ([]string, error)
	// ClearCache drops the cached set of role, or of every role when empty
	ClearCache(role string)
}

// permCacheEntry stores cached permission names for a role with TTL
type permCacheEntry struct {
	names     []string
	set       map[string]struct{}
	expiresAt time.Time
}

type permissionService struct {
	roleRepo repository.RoleRepository
	cache    sync.Map // role name -> permCacheEntry
	ttl      time.Duration
	now      func() time.Time
}

func NewPermissionService(roleRepo repository.RoleRepository, ttl time.Duration) PermissionService {
	if ttl <= 0 {
		ttl = DefaultPermissionTTL
	}
	return &permissionService{roleRepo: roleRepo, ttl: ttl, now: time.Now}
}

func (s *permissionService) load(ctx context.Context, role string) (permCacheEntry, error) {
	if entry, ok := s.cache.Load(role); ok {
		cached := entry.(permCacheEntry)
		if s.now().Before(cached.expiresAt) {
			return cached, nil
		}
	}

	names, err := s.roleRepo.PermissionNamesByRole(ctx, role)
	if err != nil {
		return permCacheEntry{}, err
	}
	entry := permCacheEntry{
		names:     names,
		set:       make(map[string]struct{}, len(names)),
		expiresAt: s.now().Add(s.ttl),
	}
	for _, n := range names {
		entry.set[n] = struct{}{}
	}
	s.cache.Store(role, entry)
	return entry, nil
}

func (s *permissionService) HasPermission(ctx context.Context, role, permission string) (bool, error) {
	if role == "" {
		return false, nil
	}
	// admin always passes
	if role == model.RoleAdmin {
		return true, nil
	}
	entry, err := s.load(ctx, role)
	if err != nil {
		return false, err
	}
	_, ok := entry.set[permission]
	return ok, nil
}

func (s *permissionService) Permissions(ctx context.Context, role string) ([]string, error) {
	entry, err := s.load(ctx, role)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(entry.names))
	copy(out, entry.names)
	return out, nil
}

func (s *permissionService) ClearCache(role string) {
	if role != "" {
		s.cache.Delete(role)
		return
	}
	s.cache.Range(func(key, _ interface{}) bool {
		s.cache.Delete(key)
		return true
	})
}
