package service

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/repository"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/storage"

	"gorm.io/gorm"
)

// pngBytes starts with the PNG magic so content sniffing accepts it
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0x01}, 64)...)

func pngUpload(name string) SignatureSource {
	return SignatureSource{Upload: &Upload{Filename: name, Size: int64(len(pngBytes)), Content: bytes.NewReader(pngBytes)}}
}

type fakeTx struct{}

func (fakeTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- pedidos ---

type fakePedidoRepo struct {
	mu          sync.Mutex
	pedidos     map[uint]*model.CpPedido
	lastID      uint
	lastItemID  uint
	consecutivo int
}

func newFakePedidoRepo() *fakePedidoRepo {
	return &fakePedidoRepo{pedidos: map[uint]*model.CpPedido{}}
}

func clonePedido(p *model.CpPedido) *model.CpPedido {
	out := *p
	out.Items = append([]model.CpItemPedido(nil), p.Items...)
	return &out
}

func (r *fakePedidoRepo) NextConsecutivo(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consecutivo++
	return r.consecutivo, nil
}

func (r *fakePedidoRepo) assignItems(pedidoID uint, items []model.CpItemPedido) []model.CpItemPedido {
	out := make([]model.CpItemPedido, len(items))
	for i, it := range items {
		r.lastItemID++
		it.ID = r.lastItemID
		it.CpPedidoID = pedidoID
		out[i] = it
	}
	return out
}

func (r *fakePedidoRepo) Create(ctx context.Context, pedido *model.CpPedido) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastID++
	pedido.ID = r.lastID
	pedido.Items = r.assignItems(pedido.ID, pedido.Items)
	r.pedidos[pedido.ID] = clonePedido(pedido)
	return nil
}

func (r *fakePedidoRepo) Update(ctx context.Context, pedido *model.CpPedido) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.pedidos[pedido.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored := clonePedido(pedido)
	stored.Items = current.Items
	r.pedidos[pedido.ID] = stored
	return nil
}

func (r *fakePedidoRepo) ReplaceItems(ctx context.Context, pedidoID uint, items []model.CpItemPedido) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.pedidos[pedidoID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	current.Items = r.assignItems(pedidoID, items)
	return nil
}

func (r *fakePedidoRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pedidos, id)
	return nil
}

func (r *fakePedidoRepo) FindByID(ctx context.Context, id uint) (*model.CpPedido, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pedidos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return clonePedido(p), nil
}

func (r *fakePedidoRepo) FindForUpdate(ctx context.Context, id uint) (*model.CpPedido, error) {
	return r.FindByID(ctx, id)
}

func (r *fakePedidoRepo) List(ctx context.Context, filter repository.PedidoFilter, page, limit int) ([]model.CpPedido, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CpPedido
	for _, p := range r.pedidos {
		if filter.CreadorPorID != 0 && p.CreadorPorID != filter.CreadorPorID {
			continue
		}
		if filter.EstadoCompras != "" && p.EstadoCompras != filter.EstadoCompras {
			continue
		}
		out = append(out, *clonePedido(p))
	}
	return out, int64(len(out)), nil
}

func (r *fakePedidoRepo) MarkItemsPurchased(ctx context.Context, pedidoID uint, itemIDs []uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pedidos[pedidoID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	wanted := map[uint]bool{}
	for _, id := range itemIDs {
		wanted[id] = true
	}
	var affected int64
	for i := range p.Items {
		if wanted[p.Items[i].ID] {
			p.Items[i].Comprado = true
			affected++
		}
	}
	return affected, nil
}

// --- users ---

type fakeUserRepo struct {
	mu         sync.Mutex
	users      map[uint]*model.User
	lastID     uint
	recipients []model.User
	recipErr   error
}

func newFakeUserRepo(users ...model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[uint]*model.User{}}
	for i := range users {
		u := users[i]
		r.users[u.ID] = &u
		if u.ID > r.lastID {
			r.lastID = u.ID
		}
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Usuario == user.Usuario || u.Correo == user.Correo {
			return gorm.ErrDuplicatedKey
		}
	}
	r.lastID++
	user.ID = r.lastID
	u := *user
	r.users[u.ID] = &u
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *u
	return &out, nil
}

func (r *fakeUserRepo) find(match func(*model.User) bool) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			out := *u
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByUsuario(ctx context.Context, usuario string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Usuario == usuario })
}

func (r *fakeUserRepo) GetByCorreo(ctx context.Context, correo string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Correo == correo })
}

func (r *fakeUserRepo) List(ctx context.Context, search string, page, limit int) ([]model.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	u := *user
	r.users[u.ID] = &u
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) ListActiveWithPermission(ctx context.Context, permission string) ([]model.User, error) {
	return r.recipients, r.recipErr
}

// --- roles ---

type fakeRoleRepo struct {
	mu        sync.Mutex
	roles     map[uint]*model.Role
	perms     map[string][]string
	lookups   int
	lookupErr error
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{roles: map[uint]*model.Role{}, perms: map[string][]string{}}
}

func (r *fakeRoleRepo) Create(ctx context.Context, role *model.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	role.ID = uint(len(r.roles) + 1)
	cp := *role
	r.roles[role.ID] = &cp
	return nil
}

func (r *fakeRoleRepo) Update(ctx context.Context, role *model.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *role
	r.roles[role.ID] = &cp
	return nil
}

func (r *fakeRoleRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.roles, id)
	return nil
}

func (r *fakeRoleRepo) FindByID(ctx context.Context, id uint) (*model.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *role
	return &cp, nil
}

func (r *fakeRoleRepo) FindByName(ctx context.Context, name string) (*model.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, role := range r.roles {
		if role.Nombre == name {
			cp := *role
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRoleRepo) ListAll(ctx context.Context) ([]model.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Role
	for _, role := range r.roles {
		out = append(out, *role)
	}
	return out, nil
}

func (r *fakeRoleRepo) CountUsers(ctx context.Context, roleID uint) (int64, error) { return 0, nil }

func (r *fakeRoleRepo) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	return nil, nil
}

func (r *fakeRoleRepo) FindPermissionsByIDs(ctx context.Context, ids []uint) ([]model.Permission, error) {
	return nil, nil
}

func (r *fakeRoleRepo) ReplacePermissions(ctx context.Context, roleID uint, perms []model.Permission) error {
	return nil
}

func (r *fakeRoleRepo) PermissionNamesByRole(ctx context.Context, roleName string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	return append([]string(nil), r.perms[roleName]...), nil
}

func (r *fakeRoleRepo) FindOrCreatePermission(ctx context.Context, perm *model.Permission) error {
	return nil
}

// --- audit ---

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(ctx context.Context, filter repository.AuditFilter, page, limit int) ([]model.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.AuditLog
	for _, e := range r.entries {
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

func (r *fakeAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Action
	}
	return out
}

// --- catalogs ---

type fakeCatalogRepo[T any] struct {
	mu        sync.Mutex
	rows      map[uint]*T
	deleteErr error
}

func newFakeCatalog[T any](ids ...uint) *fakeCatalogRepo[T] {
	r := &fakeCatalogRepo[T]{rows: map[uint]*T{}}
	for _, id := range ids {
		row := new(T)
		if c, ok := any(row).(model.Catalog); ok {
			c.SetID(id)
		}
		r.rows[id] = row
	}
	return r
}

func (r *fakeCatalogRepo[T]) List(ctx context.Context, search string, page, limit int) ([]T, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []T
	for _, row := range r.rows {
		out = append(out, *row)
	}
	return out, int64(len(out)), nil
}

func (r *fakeCatalogRepo[T]) FindByID(ctx context.Context, id uint) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (r *fakeCatalogRepo[T]) FindByIDs(ctx context.Context, ids []uint) ([]T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []T
	for _, id := range ids {
		if row, ok := r.rows[id]; ok {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *fakeCatalogRepo[T]) Create(ctx context.Context, entity *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uint(len(r.rows) + 1)
	if c, ok := any(entity).(model.Catalog); ok {
		c.SetID(id)
	}
	r.rows[id] = entity
	return nil
}

func (r *fakeCatalogRepo[T]) Update(ctx context.Context, entity *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := any(entity).(model.Catalog)
	if !ok {
		return nil
	}
	if _, exists := r.rows[c.GetID()]; !exists {
		return gorm.ErrRecordNotFound
	}
	r.rows[c.GetID()] = entity
	return nil
}

func (r *fakeCatalogRepo[T]) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.rows, id)
	return nil
}

// --- notifications and events ---

type notified struct {
	kind       string
	pedidoID   uint
	etapa      model.Etapa
	recipients int
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notified
}

func (n *recordingNotifier) add(c notified) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, c)
}

func (n *recordingNotifier) PedidoCreado(ctx context.Context, p *model.CpPedido, recipients []model.User) {
	n.add(notified{kind: "creado", pedidoID: p.ID, recipients: len(recipients)})
}

func (n *recordingNotifier) PedidoAprobado(ctx context.Context, p *model.CpPedido, etapa model.Etapa) {
	n.add(notified{kind: "aprobado", pedidoID: p.ID, etapa: etapa})
}

func (n *recordingNotifier) PedidoRechazado(ctx context.Context, p *model.CpPedido, etapa model.Etapa) {
	n.add(notified{kind: "rechazado", pedidoID: p.ID, etapa: etapa})
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(event string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

// newTestDisk returns a LocalDisk rooted in a temp dir
func newTestDisk(t *testing.T) *storage.LocalDisk {
	t.Helper()
	disk, err := storage.NewLocalDisk(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create disk: %v", err)
	}
	return disk
}

func mustExist(t *testing.T, disk storage.Disk, p model.StoragePath, want bool) {
	t.Helper()
	ok, err := disk.Exists(context.Background(), p.String())
	if err != nil {
		t.Fatalf("exists %q: %v", p, err)
	}
	if ok != want {
		t.Fatalf("expected exists(%q) = %v, got %v", p, want, ok)
	}
}
