package handler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
)

// memRepo implements the repository ports in memory.
type memRepo struct {
	mu       sync.Mutex
	products map[string]domain.Product
	users    map[string]domain.User
	carts    map[string]*domain.Cart
	items    map[string][]domain.CartItem
}

func newMemRepo() *memRepo {
	return &memRepo{
		products: make(map[string]domain.Product),
		users:    make(map[string]domain.User),
		carts:    make(map[string]*domain.Cart),
		items:    make(map[string][]domain.CartItem),
	}
}

func (m *memRepo) ListActiveProducts(ctx context.Context) ([]domain.Product, error) {
	return m.ListActiveProductsByCategory(ctx, "")
}

func (m *memRepo) ListActiveProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Product, 0)
	for _, p := range m.products {
		if p.Active && (category == "" || p.Category == category) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memRepo) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *memRepo) UpsertProductByName(ctx context.Context, product domain.Product) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.Name == product.Name {
			return false, nil
		}
	}
	product.ID = uuid.NewString()
	m.products[product.ID] = product
	return true, nil
}

func (m *memRepo) GetUser(ctx context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (m *memRepo) UpsertUserByEmail(ctx context.Context, user domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return &u, nil
		}
	}
	m.users[user.ID] = user
	return &user, nil
}

func (m *memRepo) activeCart(userID string) *domain.Cart {
	for _, c := range m.carts {
		if c.UserID == userID && c.Status == domain.CartStatusActive {
			return c
		}
	}
	return nil
}

func (m *memRepo) GetActiveCart(ctx context.Context, userID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.activeCart(userID)
	if c == nil {
		return nil, nil
	}
	out := *c
	out.Items = nil
	for _, item := range m.items[c.ID] {
		item.Product = m.products[item.ProductID]
		out.Items = append(out.Items, item)
	}
	return &out, nil
}

func (m *memRepo) GetOrCreateActiveCart(ctx context.Context, userID string) (*domain.Cart, error) {
	m.mu.Lock()
	if m.activeCart(userID) == nil {
		c := &domain.Cart{ID: uuid.NewString(), UserID: userID, Status: domain.CartStatusActive, CreatedAt: time.Now()}
		m.carts[c.ID] = c
	}
	m.mu.Unlock()
	return m.GetActiveCart(ctx, userID)
}

func (m *memRepo) recompute(cartID string) {
	total := decimal.Zero
	for _, item := range m.items[cartID] {
		total = total.Add(item.Subtotal())
	}
	m.carts[cartID].Total = total
}

func (m *memRepo) AddItem(ctx context.Context, cartID string, item domain.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.recompute(cartID)
	items := m.items[cartID]
	for i := range items {
		if items[i].ProductID == item.ProductID {
			items[i].Quantity += item.Quantity
			return nil
		}
	}
	item.ID = uuid.NewString()
	m.items[cartID] = append(items, item)
	return nil
}

func (m *memRepo) SetItemQuantity(ctx context.Context, cartID, productID string, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.recompute(cartID)
	items := m.items[cartID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = quantity
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) RemoveItem(ctx context.Context, cartID, productID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.recompute(cartID)
	items := m.items[cartID]
	for i := range items {
		if items[i].ProductID == productID {
			m.items[cartID] = append(items[:i], items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) ClearItems(ctx context.Context, cartID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, cartID)
	m.recompute(cartID)
	return nil
}

func (m *memRepo) MarkAbandoned(ctx context.Context, idleSince time.Time) (int64, error) {
	return 0, nil
}

type memIdempotency struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (m *memIdempotency) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memIdempotency) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

const demoUserID = "5fc8e826-8642-4384-b75e-c2db246ba58c"

type fixture struct {
	repo    *memRepo
	catalog *service.CatalogService
	carts   *service.CartService
	users   *service.UserService
}

func newFixture() *fixture {
	return newFixtureWithEvents(nil)
}

func newFixtureWithEvents(events port.EventPublisher) *fixture {
	repo := newMemRepo()
	return &fixture{
		repo:    repo,
		catalog: service.NewCatalogService(repo),
		carts:   service.NewCartService(repo, repo, repo, events, &memIdempotency{keys: map[string]bool{}}, nil),
		users:   service.NewUserService(repo, domain.User{ID: demoUserID, Email: "demo@carrito.com", Name: "Usuario Demo"}),
	}
}

// seeded loads the demo catalog and user and returns a product by name.
func (f *fixture) seeded(name string) domain.Product {
	ctx := context.Background()
	if _, err := f.catalog.SeedProducts(ctx); err != nil {
		panic(err)
	}
	if _, err := f.users.SeedDemoUser(ctx); err != nil {
		panic(err)
	}
	f.repo.mu.Lock()
	defer f.repo.mu.Unlock()
	for _, p := range f.repo.products {
		if p.Name == name {
			return p
		}
	}
	panic("product not seeded: " + name)
}
