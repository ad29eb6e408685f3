package accounts

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dbelyaev/gatekeeper/internal/common"
	"github.com/dbelyaev/gatekeeper/internal/server/models"
)

// MemoryRepository keeps accounts in process memory. It mirrors the Postgres
// uniqueness and atomicity semantics under a single mutex and backs tests and
// local runs without a database.
type MemoryRepository struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{accounts: make(map[string]*models.Account)}
}

func (r *MemoryRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// the existence checks and the insert happen under one lock, matching
	// the unique-constraint guarantee of the Postgres store
	for _, a := range r.accounts {
		if a.Username == account.Username {
			return nil, common.ErrDuplicateUsername
		}
		if a.Email == account.Email {
			return nil, common.ErrDuplicateEmail
		}
	}

	stored := *account
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.CreatedAt = time.Now()
	r.accounts[stored.ID] = &stored

	result := stored
	return &result, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.accounts[id]; ok {
		result := *a
		return &result, nil
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.Username == username {
			result := *a
			return &result, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.Email == email {
			result := *a
			return &result, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) MarkEmailVerified(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.Email == email {
			a.EmailVerified = true
			a.PendingOtp.String = models.OtpConsumedSentinel
			a.PendingOtp.Valid = true
			return nil
		}
	}
	return common.ErrorNotFound
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.accounts, id)
	return nil
}
