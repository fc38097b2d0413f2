package database

import (
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// Dialect hides the differences between the supported SQL backends
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN builds the data source name, adding the options the scoring tables rely on
	DSN(config DialectConfig) string

	// RewriteQuery converts ? placeholders when the driver uses another syntax
	RewriteQuery(query string) string

	// SupportsLastInsertId reports whether inserted ids come from LastInsertId or RETURNING
	SupportsLastInsertId() bool

	// ConfigureConnection applies pool limits and session settings
	ConfigureConnection(db *sql.DB, pool PoolConfig) error

	// MigrationsSubdir names the embedded migrations directory
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the SQL to create the migrations tracking table
	CreateMigrationsTableQuery() string

	// BoolValue renders a boolean literal for is_active filters
	BoolValue(b bool) string
}

// DialectConfig holds connection settings
type DialectConfig struct {
	// SQLite file path
	Path string
	// PostgreSQL/MySQL URL
	URL string

	Pool PoolConfig
}

// PoolConfig bounds the sql.DB connection pool
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPool is used for zero fields in a PoolConfig
var DefaultPool = PoolConfig{
	MaxOpenConns:    25,
	MaxIdleConns:    5,
	ConnMaxLifetime: 5 * time.Minute,
	ConnMaxIdleTime: time.Minute,
}

// withDefaults fills unset limits from DefaultPool and keeps idle <= open
func (p PoolConfig) withDefaults() PoolConfig {
	if p.MaxOpenConns <= 0 {
		p.MaxOpenConns = DefaultPool.MaxOpenConns
	}
	if p.MaxIdleConns <= 0 {
		p.MaxIdleConns = DefaultPool.MaxIdleConns
	}
	if p.MaxIdleConns > p.MaxOpenConns {
		p.MaxIdleConns = p.MaxOpenConns
	}
	if p.ConnMaxLifetime <= 0 {
		p.ConnMaxLifetime = DefaultPool.ConnMaxLifetime
	}
	if p.ConnMaxIdleTime <= 0 {
		p.ConnMaxIdleTime = DefaultPool.ConnMaxIdleTime
	}
	return p
}

func applyPool(db *sql.DB, pool PoolConfig) {
	pool = pool.withDefaults()
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
}

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, ... leaving
// question marks inside single-quoted literals alone
func rewritePlaceholdersToNumbered(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	counter := 0
	inLiteral := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inLiteral = !inLiteral
			b.WriteByte(c)
		case c == '?' && !inLiteral:
			counter++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(counter))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// appendParams adds key=value pairs missing from a DSN's query string
func appendParams(dsn string, params [][2]string) string {
	for _, p := range params {
		if strings.Contains(dsn, p[0]+"=") {
			continue
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + p[0] + "=" + p[1]
	}
	return dsn
}
