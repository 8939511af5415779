// Package accounts owns the pool of authenticated Kick accounts and the
// cooldown bookkeeping that prevents one account from being checked out by
// two concurrent viewer sessions.
package accounts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/models"
	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/storage"
	"github.com/rs/zerolog/log"
)

// DefaultCooldown is the minimum hold time for an acquired account,
// absent an explicit release.
const DefaultCooldown = 5 * time.Minute

// Manager is the account pool. All mutation goes through its methods;
// the scan-then-mark sequence in Acquire is a single critical section.
type Manager struct {
	mu        sync.Mutex
	store     storage.ConfigStore
	accounts  []models.KickAccount
	cooldowns map[string]time.Time
	cooldown  time.Duration

	now func() time.Time
}

// NewManager creates a pool backed by store. The collection starts empty
// until Load is called.
func NewManager(store storage.ConfigStore, cooldown time.Duration) *Manager {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Manager{
		store:     store,
		cooldowns: make(map[string]time.Time),
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// Load replaces the in-memory collection from the store. A load or parse
// failure degrades to an empty pool rather than failing the caller.
func (m *Manager) Load(ctx context.Context) {
	accounts, err := m.store.LoadAccounts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load accounts, starting with empty pool")
		accounts = nil
	}

	m.mu.Lock()
	m.accounts = accounts
	m.mu.Unlock()

	log.Info().Int("count", len(accounts)).Msg("Kick accounts loaded")
}

// Acquire returns the first active account whose cooldown has expired and
// marks it acquired. The second return is false when the pool is exhausted,
// which is a capacity signal, not an error.
func (m *Manager) Acquire() (models.KickAccount, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for i := range m.accounts {
		acc := &m.accounts[i]
		if !acc.IsActive {
			continue
		}
		if last, ok := m.cooldowns[acc.Username]; ok && now.Sub(last) < m.cooldown {
			continue
		}

		m.cooldowns[acc.Username] = now
		used := now
		acc.LastUsed = &used
		return *acc, true
	}
	return models.KickAccount{}, false
}

// Release clears the cooldown entry for username, making the account
// immediately eligible again. Sessions release on exit, not on a timer.
func (m *Manager) Release(username string) {
	m.mu.Lock()
	delete(m.cooldowns, username)
	m.mu.Unlock()
}

// ActiveCount reports how many accounts are active, regardless of cooldown
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, acc := range m.accounts {
		if acc.IsActive {
			count++
		}
	}
	return count
}

// All returns a copy of the collection
func (m *Manager) All() []models.KickAccount {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.KickAccount, len(m.accounts))
	copy(out, m.accounts)
	return out
}

// Add appends a new account and persists the collection
func (m *Manager) Add(ctx context.Context, account models.KickAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, acc := range m.accounts {
		if acc.Username == account.Username {
			return fmt.Errorf("account %q already exists", account.Username)
		}
	}

	m.accounts = append(m.accounts, account)
	return m.saveLocked(ctx)
}

// Update applies a partial update to the named account and persists the
// collection. Returns false if the account does not exist.
func (m *Manager) Update(ctx context.Context, username string, updates models.AccountUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.accounts {
		if m.accounts[i].Username != username {
			continue
		}
		if updates.Email != nil {
			m.accounts[i].Email = *updates.Email
		}
		if updates.Token != nil {
			m.accounts[i].Token = *updates.Token
		}
		if updates.Password != nil {
			m.accounts[i].Password = *updates.Password
		}
		if updates.IsActive != nil {
			m.accounts[i].IsActive = *updates.IsActive
		}
		return true, m.saveLocked(ctx)
	}
	return false, nil
}

// Remove deletes the named account and persists the collection.
// Returns false if the account does not exist.
func (m *Manager) Remove(ctx context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.accounts {
		if m.accounts[i].Username == username {
			m.accounts = append(m.accounts[:i], m.accounts[i+1:]...)
			return true, m.saveLocked(ctx)
		}
	}
	return false, nil
}

func (m *Manager) saveLocked(ctx context.Context) error {
	if err := m.store.SaveAccounts(ctx, m.accounts); err != nil {
		return fmt.Errorf("save accounts: %w", err)
	}
	return nil
}
