// Package custody models the staking layer that holds lent principal.
//
// The ledger only tells custody how long principal must stay locked; custody
// itself refuses to release principal before that time.
package custody

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/lending/types"
)

var (
	// ErrStillLocked is returned when principal is withdrawn before its unlock time.
	ErrStillLocked = errors.New("custody: principal still locked")
	// ErrNoLock is returned when an account has nothing in custody.
	ErrNoLock = errors.New("custody: no lock for account")
	// ErrInvalidAmount is returned when locking a non-positive amount.
	ErrInvalidAmount = errors.New("custody: invalid amount")
)

// Custodian is the custody layer consumed by the ledger.
type Custodian interface {
	// LockUntil adds amount to the account's locked principal and makes sure
	// the whole lock lasts at least until the given instant.
	LockUntil(ctx context.Context, account common.Address, amount types.Amount, until time.Time) error
	// ExtendLock pushes the account's unlock time to until if it is later.
	ExtendLock(ctx context.Context, account common.Address, until time.Time) error
	// LockedAmount returns the principal currently held for the account.
	LockedAmount(ctx context.Context, account common.Address) (types.Amount, error)
}

// Snapshotter is implemented by custodians that can put an account's lock
// back the way it was. The ledger uses it to undo custody changes of an
// operation whose commit failed.
type Snapshotter interface {
	// Snapshot returns a copy of the account's lock, or nil when it has none.
	Snapshot(ctx context.Context, account common.Address) (*Lock, error)
	// Restore replaces the account's lock with lock. A nil lock removes it.
	Restore(ctx context.Context, account common.Address, lock *Lock) error
}

// Lock is the custody state of one account.
type Lock struct {
	Account common.Address `json:"account"`
	Amount  types.Amount   `json:"amount"`
	Until   time.Time      `json:"until"`
}

// LockStore persists locks. LoadLock returns (nil, nil) when the account has
// no lock.
type LockStore interface {
	LoadLock(ctx context.Context, account common.Address) (*Lock, error)
	SaveLock(ctx context.Context, lock *Lock) error
	DeleteLock(ctx context.Context, account common.Address) error
}

// compile-time interface checks
var (
	_ Custodian   = (*Vault)(nil)
	_ Snapshotter = (*Vault)(nil)
)

// Vault is a Custodian that keeps one lock per account and enforces its
// unlock time on withdrawal.
type Vault struct {
	mu    sync.Mutex
	locks LockStore
}

// Option configures a Vault.
type Option func(*Vault)

// WithLockStore persists locks in s instead of process memory.
func WithLockStore(s LockStore) Option {
	return func(v *Vault) { v.locks = s }
}

// NewVault creates a Vault. Locks live in memory unless WithLockStore is given.
func NewVault(opts ...Option) *Vault {
	v := &Vault{locks: newMemoryLocks()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// LockUntil implements Custodian.
func (v *Vault) LockUntil(ctx context.Context, account common.Address, amount types.Amount, until time.Time) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	lock, err := v.locks.LoadLock(ctx, account)
	if err != nil {
		return err
	}
	if lock == nil {
		lock = &Lock{Account: account}
	}
	lock.Amount = lock.Amount.Add(amount)
	lock.Until = later(lock.Until, until.UTC())
	return v.locks.SaveLock(ctx, lock)
}

// ExtendLock implements Custodian.
func (v *Vault) ExtendLock(ctx context.Context, account common.Address, until time.Time) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	lock, err := v.locks.LoadLock(ctx, account)
	if err != nil {
		return err
	}
	if lock == nil {
		return ErrNoLock
	}
	lock.Until = later(lock.Until, until.UTC())
	return v.locks.SaveLock(ctx, lock)
}

// LockedAmount implements Custodian.
func (v *Vault) LockedAmount(ctx context.Context, account common.Address) (types.Amount, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	lock, err := v.locks.LoadLock(ctx, account)
	if err != nil || lock == nil {
		return types.Amount{}, err
	}
	return lock.Amount, nil
}

// Lock returns a copy of the account's lock, or ErrNoLock.
func (v *Vault) Lock(ctx context.Context, account common.Address) (Lock, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	lock, err := v.locks.LoadLock(ctx, account)
	if err != nil {
		return Lock{}, err
	}
	if lock == nil {
		return Lock{}, ErrNoLock
	}
	return *lock, nil
}

// Snapshot implements Snapshotter.
func (v *Vault) Snapshot(ctx context.Context, account common.Address) (*Lock, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.locks.LoadLock(ctx, account)
}

// Restore implements Snapshotter.
func (v *Vault) Restore(ctx context.Context, account common.Address, lock *Lock) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if lock == nil {
		return v.locks.DeleteLock(ctx, account)
	}
	restored := *lock
	restored.Account = account
	return v.locks.SaveLock(ctx, &restored)
}

// Withdraw releases the account's whole principal once now has reached the
// unlock time.
func (v *Vault) Withdraw(ctx context.Context, account common.Address, now time.Time) (types.Amount, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	lock, err := v.locks.LoadLock(ctx, account)
	if err != nil {
		return types.Amount{}, err
	}
	if lock == nil {
		return types.Amount{}, ErrNoLock
	}
	if now.Before(lock.Until) {
		return types.Amount{}, ErrStillLocked
	}
	if err := v.locks.DeleteLock(ctx, account); err != nil {
		return types.Amount{}, err
	}
	return lock.Amount, nil
}

func later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

// memoryLocks is the default in-process LockStore.
type memoryLocks struct {
	locks map[common.Address]Lock
}

func newMemoryLocks() *memoryLocks {
	return &memoryLocks{locks: make(map[common.Address]Lock)}
}

func (m *memoryLocks) LoadLock(_ context.Context, account common.Address) (*Lock, error) {
	l, ok := m.locks[account]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (m *memoryLocks) SaveLock(_ context.Context, lock *Lock) error {
	m.locks[lock.Account] = *lock
	return nil
}

func (m *memoryLocks) DeleteLock(_ context.Context, account common.Address) error {
	delete(m.locks, account)
	return nil
}
