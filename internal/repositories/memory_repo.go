package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prudhvinik1/customer-service/internal/models"
)

// MemoryAccountRepository keeps accounts in process memory. It backs local
// development (STORAGE_DRIVER=memory) and the service tests.
type MemoryAccountRepository struct {
	mu        sync.RWMutex
	accounts  map[uuid.UUID]*models.Account
	addresses map[uuid.UUID]models.Address
	owned     map[uuid.UUID][]uuid.UUID
	now       func() time.Time
}

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		accounts:  make(map[uuid.UUID]*models.Account),
		addresses: make(map[uuid.UUID]models.Address),
		owned:     make(map[uuid.UUID][]uuid.UUID),
		now:       time.Now,
	}
}

func (r *MemoryAccountRepository) Create(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findLocked(func(a *models.Account) bool { return a.Email == account.Email }) != nil {
		return ErrAlreadyExists
	}

	now := r.now()
	account.ID = uuid.New()
	account.CreatedAt = now
	account.UpdatedAt = now
	r.accounts[account.ID] = cloneAccount(account)
	return nil
}

func (r *MemoryAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAccount(a), nil
}

func (r *MemoryAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.find(func(a *models.Account) bool { return a.Email == email })
}

func (r *MemoryAccountRepository) GetByVerifyToken(ctx context.Context, token string) (*models.Account, error) {
	return r.find(func(a *models.Account) bool { return a.VerifyToken != nil && *a.VerifyToken == token })
}

func (r *MemoryAccountRepository) GetByResetToken(ctx context.Context, token string) (*models.Account, error) {
	return r.find(func(a *models.Account) bool { return a.ResetToken != nil && *a.ResetToken == token })
}

func (r *MemoryAccountRepository) Update(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.accounts[account.ID]
	if !ok {
		return ErrNotFound
	}
	if dup := r.findLocked(func(a *models.Account) bool {
		return a.Email == account.Email && a.ID != account.ID
	}); dup != nil {
		return ErrAlreadyExists
	}

	account.CreatedAt = existing.CreatedAt
	account.UpdatedAt = r.now()
	r.accounts[account.ID] = cloneAccount(account)
	return nil
}

func (r *MemoryAccountRepository) AddAddress(ctx context.Context, accountID uuid.UUID, address *models.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[accountID]
	if !ok {
		return ErrNotFound
	}

	address.ID = uuid.New()
	address.CreatedAt = r.now()
	r.addresses[address.ID] = *address
	r.owned[accountID] = append(r.owned[accountID], address.ID)
	account.UpdatedAt = address.CreatedAt
	return nil
}

func (r *MemoryAccountRepository) ListAddresses(ctx context.Context, accountID uuid.UUID) ([]models.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.owned[accountID]
	addresses := make([]models.Address, 0, len(ids))
	for _, id := range ids {
		addresses = append(addresses, r.addresses[id])
	}
	return addresses, nil
}

func (r *MemoryAccountRepository) Delete(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	for _, addressID := range r.owned[id] {
		delete(r.addresses, addressID)
	}
	delete(r.owned, id)
	delete(r.accounts, id)
	return account, nil
}

func (r *MemoryAccountRepository) find(match func(*models.Account) bool) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a := r.findLocked(match)
	if a == nil {
		return nil, ErrNotFound
	}
	return cloneAccount(a), nil
}

func (r *MemoryAccountRepository) findLocked(match func(*models.Account) bool) *models.Account {
	for _, a := range r.accounts {
		if match(a) {
			return a
		}
	}
	return nil
}

func cloneAccount(a *models.Account) *models.Account {
	c := *a
	c.VerifyToken = clonePtr(a.VerifyToken)
	c.VerifyTokenExpiry = clonePtr(a.VerifyTokenExpiry)
	c.ResetToken = clonePtr(a.ResetToken)
	c.ResetTokenExpiry = clonePtr(a.ResetTokenExpiry)
	c.Addresses = nil
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
