package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

// memStore backs every repository port with maps guarded by one mutex.
type memStore struct {
	mu       sync.Mutex
	products map[string]domain.Product
	users    map[string]domain.User
	carts    map[string]*domain.Cart
	items    map[string][]domain.CartItem
	failAdd  error
	// beforeAdd runs ahead of AddItem, outside the lock
	beforeAdd func(cartID string)
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[string]domain.Product),
		users:    make(map[string]domain.User),
		carts:    make(map[string]*domain.Cart),
		items:    make(map[string][]domain.CartItem),
	}
}

func (m *memStore) addProduct(name string, price string, stock int) domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := domain.Product{
		ID:       uuid.NewString(),
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		Category: "Test",
		Active:   true,
	}
	m.products[p.ID] = p
	return p
}

func (m *memStore) addUser(email string) domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := domain.User{ID: uuid.NewString(), Email: email, Name: email}
	m.users[u.ID] = u
	return u
}

func (m *memStore) ListActiveProducts(ctx context.Context) ([]domain.Product, error) {
	return m.ListActiveProductsByCategory(ctx, "")
}

func (m *memStore) ListActiveProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Product
	for _, p := range m.products {
		if p.Active && (category == "" || p.Category == category) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memStore) UpsertProductByName(ctx context.Context, product domain.Product) (bool, error) {
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

func (m *memStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *memStore) UpsertUserByEmail(ctx context.Context, user domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return &u, nil
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	m.users[user.ID] = user
	return &user, nil
}

func (m *memStore) activeCart(userID string) *domain.Cart {
	for _, c := range m.carts {
		if c.UserID == userID && c.Status == domain.CartStatusActive {
			return c
		}
	}
	return nil
}

func (m *memStore) snapshot(c *domain.Cart) *domain.Cart {
	out := *c
	out.Items = nil
	for _, item := range m.items[c.ID] {
		item.Product = m.products[item.ProductID]
		out.Items = append(out.Items, item)
	}
	return &out
}

func (m *memStore) recompute(cartID string) {
	total := decimal.Zero
	for _, item := range m.items[cartID] {
		total = total.Add(item.Subtotal())
	}
	m.carts[cartID].Total = total
	m.carts[cartID].UpdatedAt = time.Now()
}

func (m *memStore) GetActiveCart(ctx context.Context, userID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.activeCart(userID)
	if c == nil {
		return nil, nil
	}
	return m.snapshot(c), nil
}

func (m *memStore) GetOrCreateActiveCart(ctx context.Context, userID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.activeCart(userID)
	if c == nil {
		now := time.Now()
		c = &domain.Cart{
			ID:        uuid.NewString(),
			UserID:    userID,
			Status:    domain.CartStatusActive,
			Total:     decimal.Zero,
			CreatedAt: now,
			UpdatedAt: now,
		}
		m.carts[c.ID] = c
	}
	return m.snapshot(c), nil
}

// lockCart mirrors the SQL adapter: mutations only touch active carts.
func (m *memStore) lockCart(cartID string) error {
	if c, ok := m.carts[cartID]; !ok || c.Status != domain.CartStatusActive {
		return errors.WithMessagef(domain.ErrNotFound, "cart %s", cartID)
	}
	return nil
}

func (m *memStore) AddItem(ctx context.Context, cartID string, item domain.CartItem) error {
	if m.beforeAdd != nil {
		m.beforeAdd(cartID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAdd != nil {
		return m.failAdd
	}
	if err := m.lockCart(cartID); err != nil {
		return err
	}
	items := m.items[cartID]
	for i := range items {
		if items[i].ProductID == item.ProductID {
			items[i].Quantity += item.Quantity
			m.recompute(cartID)
			return nil
		}
	}
	item.ID = uuid.NewString()
	m.items[cartID] = append(items, item)
	m.recompute(cartID)
	return nil
}

func (m *memStore) SetItemQuantity(ctx context.Context, cartID, productID string, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.lockCart(cartID); err != nil {
		return false, err
	}
	items := m.items[cartID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = quantity
			m.recompute(cartID)
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) RemoveItem(ctx context.Context, cartID, productID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.items[cartID]
	for i := range items {
		if items[i].ProductID == productID {
			m.items[cartID] = append(items[:i], items[i+1:]...)
			m.recompute(cartID)
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ClearItems(ctx context.Context, cartID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, cartID)
	m.recompute(cartID)
	return nil
}

func (m *memStore) MarkAbandoned(ctx context.Context, idleSince time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range m.carts {
		if c.Status == domain.CartStatusActive && c.UpdatedAt.Before(idleSince) {
			c.Status = domain.CartStatusAbandoned
			n++
		}
	}
	return n, nil
}

// Mock IdempotencyStore
type mockIdempotency struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMockIdempotency() *mockIdempotency {
	return &mockIdempotency{keys: make(map[string]bool)}
}

func (m *mockIdempotency) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *mockIdempotency) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

// Mock EventPublisher
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.CartEvent
}

func (r *recordingPublisher) Publish(ctx context.Context, event domain.CartEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingPublisher) types() []domain.CartEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.CartEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
