// Пакет repotest — in-memory реализации репозиториев для unit-тестов
// сервисов и handlers. Повторяют семантику PostgreSQL-реализаций:
// ошибки ErrNotFound, DuplicateError, ErrReferenced и порядок выдачи.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/VinaySavla/royanix/internal/domain/model"
	"github.com/VinaySavla/royanix/internal/domain/rbac"
	"github.com/VinaySavla/royanix/internal/repository"
)

// --- Admins ---

// Admins — in-memory repository.AdminRepository и service.FirstAdminCreator.
type Admins struct {
	mu    sync.Mutex
	byID  map[string]*model.Admin
	clock time.Time
}

// NewAdmins создаёт пустое хранилище учётных записей.
func NewAdmins() *Admins {
	return &Admins{
		byID:  make(map[string]*model.Admin),
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *Admins) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *Admins) duplicate(id, username, email string) error {
	for _, a := range r.byID {
		if a.ID == id {
			continue
		}
		if a.Username == username {
			return &repository.DuplicateError{Field: "username"}
		}
		if a.Email == email {
			return &repository.DuplicateError{Field: "email"}
		}
	}
	return nil
}

// Seed добавляет учётную запись с готовым хешем пароля.
// Email — username@example.com.
func (r *Admins) Seed(username, role, passwordHash string, active bool) *model.Admin {
	a := &model.Admin{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: passwordHash,
		Role:         role,
		Active:       active,
	}
	if err := r.Create(context.Background(), a); err != nil {
		panic(err)
	}
	return a
}

func (r *Admins) Create(_ context.Context, a *model.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.duplicate("", a.Username, a.Email); err != nil {
		return err
	}
	a.ID = uuid.NewString()
	a.CreatedAt = r.tick()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	r.byID[a.ID] = &cp
	return nil
}

func (r *Admins) GetByID(_ context.Context, id string) (*model.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *Admins) GetActiveByLogin(_ context.Context, login string) (*model.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if a.Active && (a.Username == login || a.Email == strings.ToLower(login)) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Admins) List(_ context.Context) ([]*model.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Admin, 0, len(r.byID))
	for _, a := range r.byID {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *Admins) Update(_ context.Context, id string, upd *model.AdminUpdate) (*model.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	next := *a
	if upd.Username != nil {
		next.Username = *upd.Username
	}
	if upd.Email != nil {
		next.Email = *upd.Email
	}
	if upd.Role != nil {
		next.Role = *upd.Role
	}
	if upd.Active != nil {
		next.Active = *upd.Active
	}
	if upd.PasswordHash != nil {
		next.PasswordHash = *upd.PasswordHash
	}
	if err := r.duplicate(id, next.Username, next.Email); err != nil {
		return nil, err
	}
	next.UpdatedAt = r.tick()
	r.byID[id] = &next
	cp := next
	return &cp, nil
}

func (r *Admins) TouchLastLogin(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := r.tick()
	a.LastLoginAt = &now
	return nil
}

func (r *Admins) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *Admins) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID), nil
}

func (r *Admins) CountActiveSuperAdmins(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.byID {
		if a.Active && a.Role == rbac.RoleSuperAdmin {
			n++
		}
	}
	return n, nil
}

// CreateFirstAdmin создаёт запись, только если хранилище пусто.
func (r *Admins) CreateFirstAdmin(ctx context.Context, a *model.Admin) (bool, error) {
	count, _ := r.Count(ctx)
	if count > 0 {
		return false, nil
	}
	return true, r.Create(ctx, a)
}

// --- Catalog ---

// Catalog — общее in-memory хранилище товаров и категорий.
type Catalog struct {
	mu         sync.Mutex
	categories map[string]*model.Category
	products   map[string]*model.Product
	clock      time.Time

	productListCalls  int
	categoryListCalls int
}

// NewCatalog создаёт пустое хранилище каталога.
func NewCatalog() *Catalog {
	return &Catalog{
		categories: make(map[string]*model.Category),
		products:   make(map[string]*model.Product),
		clock:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *Catalog) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

// Products возвращает repository.ProductRepository поверх хранилища.
func (m *Catalog) Products() *Products { return &Products{m} }

// Categories возвращает repository.CategoryRepository поверх хранилища.
func (m *Catalog) Categories() *Categories { return &Categories{m} }

// ProductListCalls — сколько раз вызывался Products().List.
func (m *Catalog) ProductListCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.productListCalls
}

// CategoryListCalls — сколько раз вызывался Categories().List.
func (m *Catalog) CategoryListCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.categoryListCalls
}

// SeedCategory добавляет активную категорию.
func (m *Catalog) SeedCategory(name string) *model.Category {
	c := &model.Category{Name: name, Active: true}
	if err := m.Categories().Create(context.Background(), c); err != nil {
		panic(err)
	}
	return c
}

// SeedProduct добавляет товар категории.
func (m *Catalog) SeedProduct(name, categoryID string, featured, active bool) *model.Product {
	p := &model.Product{
		Name:        name,
		Description: name + " description",
		CategoryID:  categoryID,
		Featured:    featured,
		Active:      active,
	}
	if err := m.Products().Create(context.Background(), p); err != nil {
		panic(err)
	}
	return p
}

// Categories — in-memory repository.CategoryRepository.
type Categories struct{ m *Catalog }

func (r *Categories) withCount(c *model.Category) *model.Category {
	cp := *c
	cp.ProductCount = 0
	for _, p := range r.m.products {
		if p.CategoryID == c.ID && p.Active {
			cp.ProductCount++
		}
	}
	return &cp
}

func (r *Categories) List(_ context.Context) ([]*model.Category, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.categoryListCalls++
	out := make([]*model.Category, 0, len(r.m.categories))
	for _, c := range r.m.categories {
		out = append(out, r.withCount(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Categories) GetByID(_ context.Context, id string) (*model.Category, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.withCount(c), nil
}

func (r *Categories) Exists(_ context.Context, id string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	_, ok := r.m.categories[id]
	return ok, nil
}

func (r *Categories) nameTaken(id, name string) bool {
	for _, c := range r.m.categories {
		if c.ID != id && c.Name == name {
			return true
		}
	}
	return false
}

func (r *Categories) Create(_ context.Context, c *model.Category) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.nameTaken("", c.Name) {
		return &repository.DuplicateError{Field: "name"}
	}
	c.ID = uuid.NewString()
	c.CreatedAt = r.m.tick()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	r.m.categories[c.ID] = &cp
	return nil
}

func (r *Categories) Update(_ context.Context, c *model.Category) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.categories[c.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.nameTaken(c.ID, c.Name) {
		return &repository.DuplicateError{Field: "name"}
	}
	c.UpdatedAt = r.m.tick()
	cp := *c
	r.m.categories[c.ID] = &cp
	return nil
}

func (r *Categories) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.categories[id]; !ok {
		return repository.ErrNotFound
	}
	for _, p := range r.m.products {
		if p.CategoryID == id {
			return repository.ErrReferenced
		}
	}
	delete(r.m.categories, id)
	return nil
}

func (r *Categories) Count(_ context.Context) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return len(r.m.categories), nil
}

// Products — in-memory repository.ProductRepository.
type Products struct{ m *Catalog }

func (r *Products) withCategory(p *model.Product) *model.Product {
	cp := *p
	cp.CategoryName = ""
	if c, ok := r.m.categories[p.CategoryID]; ok {
		cp.CategoryName = c.Name
	}
	return &cp
}

func (r *Products) List(_ context.Context, filter model.ProductFilter) ([]*model.Product, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.productListCalls++
	var out []*model.Product
	for _, p := range r.m.products {
		if !p.Active || (filter.FeaturedOnly && !p.Featured) ||
			(filter.CategoryID != "" && p.CategoryID != filter.CategoryID) {
			continue
		}
		out = append(out, r.withCategory(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *Products) GetByID(_ context.Context, id string) (*model.Product, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.withCategory(p), nil
}

func (r *Products) Create(_ context.Context, p *model.Product) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.categories[p.CategoryID]; !ok {
		return repository.ErrReferenced
	}
	p.ID = uuid.NewString()
	p.CreatedAt = r.m.tick()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.m.products[p.ID] = &cp
	return nil
}

func (r *Products) Update(_ context.Context, p *model.Product) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.products[p.ID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := r.m.categories[p.CategoryID]; !ok {
		return repository.ErrReferenced
	}
	p.UpdatedAt = r.m.tick()
	cp := *p
	r.m.products[p.ID] = &cp
	return nil
}

func (r *Products) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.m.products, id)
	return nil
}

func (r *Products) CountByCategory(_ context.Context, categoryID string) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	n := 0
	for _, p := range r.m.products {
		if p.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (r *Products) Counts(_ context.Context) (total, featured int, err error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, p := range r.m.products {
		if !p.Active {
			continue
		}
		total++
		if p.Featured {
			featured++
		}
	}
	return total, featured, nil
}

var (
	_ repository.AdminRepository    = (*Admins)(nil)
	_ repository.CategoryRepository = (*Categories)(nil)
	_ repository.ProductRepository  = (*Products)(nil)
)
