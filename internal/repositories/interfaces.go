package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/prudhvinik1/customer-service/internal/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// AccountRepository stores accounts and the addresses they own.
// Lookups return ErrNotFound when nothing matches.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByVerifyToken(ctx context.Context, token string) (*models.Account, error)
	GetByResetToken(ctx context.Context, token string) (*models.Account, error)
	// Update writes every mutable field of the account in a single statement.
	Update(ctx context.Context, account *models.Account) error
	// AddAddress stores the address and appends it to the account's address list.
	AddAddress(ctx context.Context, accountID uuid.UUID, address *models.Address) error
	ListAddresses(ctx context.Context, accountID uuid.UUID) ([]models.Address, error)
	// Delete removes the account and returns it, or nil if it did not exist.
	Delete(ctx context.Context, id uuid.UUID) (*models.Account, error)
}
