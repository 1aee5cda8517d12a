package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prudhvinik1/customer-service/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

const accountColumns = `id, email, password_hash, salt, first_name, last_name, phone, is_verified,
	verify_token, verify_token_expiry, reset_token, reset_token_expiry, created_at, updated_at`

type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

func (r *PostgresAccountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `INSERT INTO accounts (email, password_hash, salt, first_name, last_name, phone, is_verified,
	              verify_token, verify_token_expiry, reset_token, reset_token_expiry)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
              RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		account.Email, account.PasswordHash, account.Salt, account.FirstName, account.LastName, account.Phone,
		account.IsVerified, account.VerifyToken, account.VerifyTokenExpiry, account.ResetToken, account.ResetTokenExpiry,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if isPgError(err, pgUniqueViolation) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *PostgresAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return r.getBy(ctx, "id", id)
}

func (r *PostgresAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.getBy(ctx, "email", email)
}

func (r *PostgresAccountRepository) GetByVerifyToken(ctx context.Context, token string) (*models.Account, error) {
	return r.getBy(ctx, "verify_token", token)
}

func (r *PostgresAccountRepository) GetByResetToken(ctx context.Context, token string) (*models.Account, error) {
	return r.getBy(ctx, "reset_token", token)
}

// getBy is only called with column names from this file.
func (r *PostgresAccountRepository) getBy(ctx context.Context, column string, value any) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` + column + ` = $1`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, value))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func (r *PostgresAccountRepository) Update(ctx context.Context, account *models.Account) error {
	query := `UPDATE accounts SET email = $1, password_hash = $2, salt = $3, first_name = $4, last_name = $5,
	              phone = $6, is_verified = $7, verify_token = $8, verify_token_expiry = $9,
	              reset_token = $10, reset_token_expiry = $11, updated_at = NOW()
              WHERE id = $12
              RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		account.Email, account.PasswordHash, account.Salt, account.FirstName, account.LastName, account.Phone,
		account.IsVerified, account.VerifyToken, account.VerifyTokenExpiry, account.ResetToken, account.ResetTokenExpiry,
		account.ID,
	).Scan(&account.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if isPgError(err, pgUniqueViolation) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

// AddAddress inserts the address and links it to the account in one transaction,
// so a failure cannot leave an address without an owner.
func (r *PostgresAccountRepository) AddAddress(ctx context.Context, accountID uuid.UUID, address *models.Address) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO addresses (street, postal_code, city, country) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		address.Street, address.PostalCode, address.City, address.Country,
	).Scan(&address.ID, &address.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create address: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO account_addresses (account_id, address_id, position)
         SELECT $1, $2, COALESCE(MAX(position) + 1, 0) FROM account_addresses WHERE account_id = $1`,
		accountID, address.ID,
	)
	if isPgError(err, pgForeignKeyViolation) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to link address: %w", err)
	}

	if _, err = tx.Exec(ctx, `UPDATE accounts SET updated_at = NOW() WHERE id = $1`, accountID); err != nil {
		return fmt.Errorf("failed to touch account: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit address: %w", err)
	}
	return nil
}

func (r *PostgresAccountRepository) ListAddresses(ctx context.Context, accountID uuid.UUID) ([]models.Address, error) {
	query := `SELECT a.id, a.street, a.postal_code, a.city, a.country, a.created_at
              FROM addresses a
              JOIN account_addresses aa ON aa.address_id = a.id
              WHERE aa.account_id = $1
              ORDER BY aa.position`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	defer rows.Close()

	addresses := []models.Address{}
	for rows.Next() {
		var a models.Address
		if err := rows.Scan(&a.ID, &a.Street, &a.PostalCode, &a.City, &a.Country, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate addresses: %w", err)
	}
	return addresses, nil
}

func (r *PostgresAccountRepository) Delete(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Owned addresses go first; the link rows cascade with the account.
	_, err = tx.Exec(ctx,
		`DELETE FROM addresses WHERE id IN (SELECT address_id FROM account_addresses WHERE account_id = $1)`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete addresses: %w", err)
	}

	account, err := scanAccount(tx.QueryRow(ctx, `DELETE FROM accounts WHERE id = $1 RETURNING `+accountColumns, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, tx.Commit(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete account: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit delete: %w", err)
	}
	return account, nil
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Salt, &a.FirstName, &a.LastName, &a.Phone, &a.IsVerified,
		&a.VerifyToken, &a.VerifyTokenExpiry, &a.ResetToken, &a.ResetTokenExpiry, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
