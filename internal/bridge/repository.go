package bridge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mattn/go-sqlite3"
)

// Repository defines persistence for registered bridges.
// Every method is scoped to one owner.
type Repository interface {
	// Create registers a bridge and allocates its logical id.
	// Returns ErrBridgeExists if the owner already registered address.
	Create(ctx context.Context, ownerID, provider, address, username string) (*Bridge, error)

	// Get returns ErrBridgeNotFound if the owner has no bridge with id.
	Get(ctx context.Context, ownerID, id string) (*Bridge, error)

	// List returns the owner's bridges in registration order.
	List(ctx context.Context, ownerID string) ([]Bridge, error)

	// SetUsername stores credentials issued by pairing.
	SetUsername(ctx context.Context, ownerID, id, username string) error

	// Delete removes a bridge. Returns ErrBridgeNotFound if absent.
	Delete(ctx context.Context, ownerID, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository over an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const bridgeColumns = `id, owner_id, provider, address, username, created_at, updated_at`

// Create allocates the next id from the owner's counter and inserts the
// bridge in one transaction.
func (r *SQLiteRepository) Create(ctx context.Context, ownerID, provider, address, username string) (*Bridge, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bridges WHERE owner_id = ? AND address = ?`,
		ownerID, address).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking existing bridge: %w", err)
	}
	if exists > 0 {
		return nil, ErrBridgeExists
	}

	now := time.Now().UTC()
	stamp := now.Format(time.RFC3339)

	var index int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO user_settings (user_id, hue_index, created_at, updated_at)
		VALUES (?, 1, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			hue_index = hue_index + 1,
			updated_at = excluded.updated_at
		RETURNING hue_index`,
		ownerID, stamp, stamp).Scan(&index)
	if err != nil {
		return nil, fmt.Errorf("allocating bridge id: %w", err)
	}

	b := &Bridge{
		ID:        strconv.FormatInt(index, 10),
		OwnerID:   ownerID,
		Provider:  provider,
		Address:   address,
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bridges (`+bridgeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.OwnerID, b.Provider, b.Address, b.Username, stamp, stamp)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrBridgeExists
		}
		return nil, fmt.Errorf("inserting bridge: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing bridge: %w", err)
	}
	return b, nil
}

// Get retrieves one of the owner's bridges.
func (r *SQLiteRepository) Get(ctx context.Context, ownerID, id string) (*Bridge, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bridgeColumns+` FROM bridges WHERE owner_id = ? AND id = ?`,
		ownerID, id)

	b, err := scanBridge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBridgeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying bridge: %w", err)
	}
	return b, nil
}

// List retrieves all of the owner's bridges.
func (r *SQLiteRepository) List(ctx context.Context, ownerID string) ([]Bridge, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bridgeColumns+` FROM bridges WHERE owner_id = ? ORDER BY rowid`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying bridges: %w", err)
	}
	defer rows.Close()

	bridges := []Bridge{}
	for rows.Next() {
		b, err := scanBridge(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning bridge: %w", err)
		}
		bridges = append(bridges, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bridges: %w", err)
	}
	return bridges, nil
}

// SetUsername updates the paired username.
func (r *SQLiteRepository) SetUsername(ctx context.Context, ownerID, id, username string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE bridges SET username = ?, updated_at = ? WHERE owner_id = ? AND id = ?`,
		username, time.Now().UTC().Format(time.RFC3339), ownerID, id)
	if err != nil {
		return fmt.Errorf("updating bridge username: %w", err)
	}
	return requireOneRow(result)
}

// Delete removes one of the owner's bridges.
func (r *SQLiteRepository) Delete(ctx context.Context, ownerID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM bridges WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("deleting bridge: %w", err)
	}
	return requireOneRow(result)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBridge(s scanner) (*Bridge, error) {
	var b Bridge
	var created, updated string
	if err := s.Scan(&b.ID, &b.OwnerID, &b.Provider, &b.Address, &b.Username, &created, &updated); err != nil {
		return nil, err
	}
	b.CreatedAt, _ = time.Parse(time.RFC3339, created) //nolint:errcheck // Format is controlled
	b.UpdatedAt, _ = time.Parse(time.RFC3339, updated) //nolint:errcheck // Format is controlled
	return &b, nil
}

func requireOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrBridgeNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
