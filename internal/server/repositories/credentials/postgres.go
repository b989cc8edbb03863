package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/dbx"
	"github.com/dmitrijs2005/authgate/internal/server/models"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, identifier string, passwordHash []byte) (int64, error) {
	query := `
		INSERT INTO credentials (identifier, password_hash)
		VALUES ($1, $2)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query, identifier, passwordHash).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, common.ErrorDuplicateIdentifier
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) FindByIdentifier(ctx context.Context, identifier string) (*models.Credential, error) {
	query := `
		SELECT id, identifier, password_hash, opaque FROM credentials
		WHERE identifier = $1
	`
	c := &models.Credential{}
	err := r.db.QueryRowContext(ctx, query, identifier).
		Scan(&c.ID, &c.Identifier, &c.PasswordHash, &c.Opaque)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*models.Credential, error) {
	query := `
		SELECT id, identifier, password_hash, opaque FROM credentials
		WHERE id = $1
	`
	c := &models.Credential{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.Identifier, &c.PasswordHash, &c.Opaque)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) UpdateOpaque(ctx context.Context, id int64, opaque *string) error {
	query := `
		UPDATE credentials SET opaque = $2
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, opaque)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) CompareAndSwapOpaque(ctx context.Context, id int64, expected, next string) (bool, error) {
	query := `
		UPDATE credentials SET opaque = $3
		WHERE id = $1 AND opaque = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, expected, next)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return affected == 1, nil
}
