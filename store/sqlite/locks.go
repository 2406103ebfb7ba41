package sqlite

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/lending/custody"
	"github.com/xraph/lending/types"
)

// compile-time interface check
var _ custody.LockStore = (*Store)(nil)

// ==================== Custody LockStore ====================

func (s *Store) LoadLock(ctx context.Context, account common.Address) (*custody.Lock, error) {
	var amount, until string
	err := s.db.QueryRowContext(ctx,
		`SELECT amount, until FROM lending_custody_locks WHERE account = ?`, accountKey(account)).
		Scan(&amount, &until)
	if err != nil {
		if isNoRows(err) {
			return nil, nil //nolint:nilnil // no lock is not an error
		}
		return nil, fmt.Errorf("lending/sqlite: load lock: %w", err)
	}

	amt, err := types.ParseAmount(amount)
	if err != nil {
		return nil, err
	}
	t, err := parseTime(until)
	if err != nil {
		return nil, err
	}
	return &custody.Lock{Account: account, Amount: amt, Until: t}, nil
}

func (s *Store) SaveLock(ctx context.Context, lock *custody.Lock) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO lending_custody_locks (account, amount, until)
		VALUES (?, ?, ?)
		ON CONFLICT (account) DO UPDATE SET amount = excluded.amount, until = excluded.until`,
		accountKey(lock.Account), lock.Amount.String(), formatTime(lock.Until))
	if err != nil {
		return fmt.Errorf("lending/sqlite: save lock: %w", err)
	}
	return nil
}

func (s *Store) DeleteLock(ctx context.Context, account common.Address) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM lending_custody_locks WHERE account = ?`, accountKey(account)); err != nil {
		return fmt.Errorf("lending/sqlite: delete lock: %w", err)
	}
	return nil
}
