package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/songzhibin97/kolwatch/internal/models"

	_ "github.com/lib/pq"
)

type PostgresRegistry struct {
	db *sql.DB
}

func NewPostgresRegistry(ctx context.Context, connStr string) (*PostgresRegistry, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	r := &PostgresRegistry{db: db}

	if err := r.initTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return r, nil
}

// Close releases the connection pool.
func (r *PostgresRegistry) Close() error {
	return r.db.Close()
}

// List implements Registry interface
func (r *PostgresRegistry) List(ctx context.Context) ([]models.TrackedAccount, error) {
	query := `
        SELECT id, handle_name, last_post_id, created_at, updated_at
        FROM kols
        ORDER BY created_at DESC
    `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query kols: %w", err)
	}
	defer rows.Close()

	var result []models.TrackedAccount
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating kol rows: %w", err)
	}

	return result, nil
}

// Create implements Registry interface
func (r *PostgresRegistry) Create(ctx context.Context, handle string) (*models.TrackedAccount, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, fmt.Errorf("handle must not be empty")
	}

	// 相同handle（忽略大小写）重复注册时返回已有记录
	query := `
        INSERT INTO kols (id, handle_name, last_post_id, created_at, updated_at)
        VALUES ($1, $2, NULL, $3, $3)
        ON CONFLICT ((lower(handle_name))) DO UPDATE SET
            updated_at = kols.updated_at
        RETURNING id, handle_name, last_post_id, created_at, updated_at
    `

	row := r.db.QueryRowContext(ctx, query, uuid.NewString(), handle, time.Now().UTC())
	account, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create kol: %w", err)
	}

	return account, nil
}

// Delete implements Registry interface
func (r *PostgresRegistry) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM kols WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete kol: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}

// UpdateCursor implements Registry interface
func (r *PostgresRegistry) UpdateCursor(ctx context.Context, id, postID string) (bool, error) {
	query := `
        UPDATE kols
        SET last_post_id = $2, updated_at = $3
        WHERE id = $1
    `

	result, err := r.db.ExecContext(ctx, query, id, postID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to update cursor: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.TrackedAccount, error) {
	var (
		account    models.TrackedAccount
		lastPostID sql.NullString
	)

	err := row.Scan(
		&account.ID,
		&account.Handle,
		&lastPostID,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan kol: %w", err)
	}

	account.LastSeenPostID = lastPostID.String
	return &account, nil
}

func (r *PostgresRegistry) initTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS kols (
			id VARCHAR(64) PRIMARY KEY,
			handle_name VARCHAR(100) NOT NULL,
			last_post_id VARCHAR(64),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE UNIQUE INDEX IF NOT EXISTS kols_handle_name_lower_idx ON kols (lower(handle_name))`,
	}

	for _, query := range queries {
		_, err := r.db.ExecContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}
