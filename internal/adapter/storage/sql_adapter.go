package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/rl1809/storefront/internal/core/domain"
)

// SQLAdapter implements the product, user and cart repositories on database/sql.
type SQLAdapter struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

// NewSQLAdapter picks the dialect by name ("mysql" or "postgres").
func NewSQLAdapter(db *sql.DB, dialectName string) (*SQLAdapter, error) {
	d, err := dialectFor(dialectName)
	if err != nil {
		return nil, err
	}
	return &SQLAdapter{db: db, dialect: d, now: time.Now}, nil
}

func (a *SQLAdapter) Dialect() string {
	return a.dialect.name
}

// stamp returns the current time at the precision both schemas store.
func (a *SQLAdapter) stamp() time.Time {
	return a.now().UTC().Truncate(time.Microsecond)
}

const productColumns = `id, name, description, price, stock, category, image, active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p           domain.Product
		description sql.NullString
		image       sql.NullString
	)
	err := row.Scan(&p.ID, &p.Name, &description, &p.Price, &p.Stock, &p.Category,
		&image, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	p.Description = description.String
	p.Image = image.String
	return p, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (a *SQLAdapter) ListActiveProducts(ctx context.Context) ([]domain.Product, error) {
	return a.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products WHERE active = ?
		ORDER BY created_at DESC, name`, true)
}

func (a *SQLAdapter) ListActiveProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return a.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products WHERE active = ? AND category = ?
		ORDER BY name`, true, category)
}

func (a *SQLAdapter) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := a.db.QueryContext(ctx, a.dialect.bind(query), args...)
	if err != nil {
		return nil, errors.Wrap(err, "query products")
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan product")
		}
		products = append(products, p)
	}
	return products, errors.Wrap(rows.Err(), "iterate products")
}

func (a *SQLAdapter) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	p, err := scanProduct(a.db.QueryRowContext(ctx, a.dialect.bind(`
		SELECT `+productColumns+` FROM products WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "query product")
	}
	return &p, nil
}

func (a *SQLAdapter) UpsertProductByName(ctx context.Context, p domain.Product) (bool, error) {
	now := a.stamp()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	result, err := a.db.ExecContext(ctx, a.dialect.bind(a.dialect.insertProductOnce),
		p.ID, p.Name, nullString(p.Description), p.Price, p.Stock, p.Category,
		nullString(p.Image), p.Active, now, now,
	)
	if err != nil {
		return false, errors.Wrap(err, "insert product")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "rows affected")
	}
	return rows == 1, nil
}

func (a *SQLAdapter) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	return a.queryUser(ctx, `SELECT id, email, name, created_at, updated_at FROM users WHERE id = ?`, id)
}

func (a *SQLAdapter) UpsertUserByEmail(ctx context.Context, u domain.User) (*domain.User, error) {
	now := a.stamp()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	_, err := a.db.ExecContext(ctx, a.dialect.bind(a.dialect.insertUserOnce),
		u.ID, u.Email, u.Name, now, now)
	if err != nil {
		return nil, errors.Wrap(err, "insert user")
	}

	user, err := a.queryUser(ctx, `SELECT id, email, name, created_at, updated_at FROM users WHERE email = ?`, u.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// the id may already belong to a user with another email
		return nil, errors.Wrapf(domain.ErrConflict, "user %s could not be stored", u.Email)
	}
	return user, nil
}

func (a *SQLAdapter) queryUser(ctx context.Context, query string, arg string) (*domain.User, error) {
	var u domain.User
	err := a.db.QueryRowContext(ctx, a.dialect.bind(query), arg).
		Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "query user")
	}
	return &u, nil
}
