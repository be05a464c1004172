package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // registers the pgx5:// scheme
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/qikurl/internal/shortener"
)

//go:embed migrations/*.sql
var migrations embed.FS

const shortURLColumns = `code, long_url, deletion_secret, expires_at, click_count, single_use, created_at`

// PostgresStore is a PostgreSQL implementation of shortener.Repository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed URL store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) Put(ctx context.Context, shortURL *shortener.ShortURL) error {
	query := `
		INSERT INTO short_urls (` + shortURLColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (code) DO UPDATE SET
			long_url = EXCLUDED.long_url,
			deletion_secret = EXCLUDED.deletion_secret,
			expires_at = EXCLUDED.expires_at,
			click_count = EXCLUDED.click_count,
			single_use = EXCLUDED.single_use,
			created_at = EXCLUDED.created_at
	`

	_, err := p.pool.Exec(ctx, query,
		string(shortURL.Code),
		shortURL.LongURL,
		shortURL.DeletionSecret,
		shortURL.ExpiresAt,
		shortURL.ClickCount,
		shortURL.SingleUse,
		shortURL.CreatedAt,
	)

	return err
}

func (p *PostgresStore) Get(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	query := `
		SELECT ` + shortURLColumns + `
		FROM short_urls
		WHERE code = $1
	`

	return scanShortURL(p.pool.QueryRow(ctx, query, string(code)))
}

func (p *PostgresStore) IncrementClicks(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	query := `
		UPDATE short_urls
		SET click_count = click_count + 1
		WHERE code = $1
		RETURNING ` + shortURLColumns

	return scanShortURL(p.pool.QueryRow(ctx, query, string(code)))
}

func (p *PostgresStore) Delete(ctx context.Context, code shortener.Code) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM short_urls WHERE code = $1`, string(code))

	return err
}

func (p *PostgresStore) DeleteUnconsumed(ctx context.Context, code shortener.Code) (bool, error) {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM short_urls WHERE code = $1 AND click_count = 0`,
		string(code),
	)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func scanShortURL(row pgx.Row) (*shortener.ShortURL, error) {
	var url shortener.ShortURL

	err := row.Scan(
		&url.Code,
		&url.LongURL,
		&url.DeletionSecret,
		&url.ExpiresAt,
		&url.ClickCount,
		&url.SingleUse,
		&url.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	url.ExpiresAt = url.ExpiresAt.UTC()
	url.CreatedAt = url.CreatedAt.UTC()

	return &url, nil
}

// MigratePostgres applies the embedded schema migrations to the database at dsn.
func MigratePostgres(dsn string) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(dsn))
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// migrateURL rewrites a postgres:// DSN to the scheme of the pgx/v5 migrate driver.
func migrateURL(dsn string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(dsn, scheme); ok {
			return "pgx5://" + rest
		}
	}

	return dsn
}

// Compile-time check.
var _ shortener.Repository = (*PostgresStore)(nil)
