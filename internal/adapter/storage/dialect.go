package storage

import (
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

const (
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"

	mysqlDuplicateEntry     = 1062
	postgresUniqueViolation = "23505"
)

// dialect holds the statements and error codes that differ between backends.
// Shared statements are written with ? placeholders and rebound when needed.
type dialect struct {
	name              string
	numberedParams    bool
	upsertItem        string
	insertProductOnce string
	insertUserOnce    string
	uniqueViolation   func(error) bool
}

var mysqlDialect = dialect{
	name: DialectMySQL,
	upsertItem: `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, unit_price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity), updated_at = VALUES(updated_at)`,
	insertProductOnce: `
		INSERT INTO products (id, name, description, price, stock, category, image, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE id = id`,
	insertUserOnce: `
		INSERT INTO users (id, email, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE id = id`,
	uniqueViolation: func(err error) bool {
		var myErr *mysql.MySQLError
		return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
	},
}

var postgresDialect = dialect{
	name:           DialectPostgres,
	numberedParams: true,
	upsertItem: `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, unit_price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`,
	insertProductOnce: `
		INSERT INTO products (id, name, description, price, stock, category, image, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO NOTHING`,
	insertUserOnce: `
		INSERT INTO users (id, email, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (email) DO NOTHING`,
	uniqueViolation: func(err error) bool {
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == postgresUniqueViolation
	},
}

func dialectFor(name string) (dialect, error) {
	switch name {
	case DialectMySQL:
		return mysqlDialect, nil
	case DialectPostgres:
		return postgresDialect, nil
	}
	return dialect{}, errors.Errorf("unsupported database dialect %q", name)
}

// bind rewrites ? placeholders to $1..$n for backends that number them.
func (d dialect) bind(query string) string {
	if !d.numberedParams {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
