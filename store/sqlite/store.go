// Package sqlite provides a Store on a single SQLite database file, through
// database/sql and the pure-Go glebarez/go-sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	_ "github.com/glebarez/go-sqlite" // registers the "sqlite" driver
	"github.com/xraph/grove/migrate"

	"github.com/xraph/lending"
	"github.com/xraph/lending/epoch"
	"github.com/xraph/lending/id"
	"github.com/xraph/lending/journal"
	"github.com/xraph/lending/position"
	"github.com/xraph/lending/schedule"
	lendingstore "github.com/xraph/lending/store"
	"github.com/xraph/lending/types"
)

// compile-time interface check
var _ lendingstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path. Use
// ":memory:" for a private in-memory database.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("lending/sqlite: open %s: %w", path, err)
	}
	return New(db), nil
}

// New wraps an existing database handle. SQLite has a single writer, so the
// pool is limited to one connection.
func New(db *sql.DB) *Store {
	db.SetMaxOpenConns(1)
	return &Store{db: db}
}

// DB returns the underlying database for direct access.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	orch := migrate.NewOrchestrator(&executor{db: s.db}, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("lending/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Position Store ====================

const positionColumns = `id, account, principal, start_epoch, end_epoch, created_at, updated_at`

func (s *Store) GetPosition(ctx context.Context, account common.Address) (*position.Position, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+positionColumns+` FROM lending_positions WHERE account = ?`, accountKey(account))
	p, err := scanPosition(row)
	if err != nil {
		if isNoRows(err) {
			return nil, lending.ErrPositionNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *Store) ListPositions(ctx context.Context, opts position.ListOpts) ([]*position.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM lending_positions ORDER BY account ASC` + limitClause(opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []*position.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// ==================== Schedule Store ====================

const accountEpochColumns = `account, epoch, amount, weight, borrowed, claimed`

func (s *Store) GetAccountEpoch(ctx context.Context, account common.Address, e epoch.Epoch) (*schedule.AccountEpoch, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+accountEpochColumns+` FROM lending_account_epochs WHERE account = ? AND epoch = ?`,
		accountKey(account), int64(e))
	ae, err := scanAccountEpoch(row)
	if err != nil {
		if isNoRows(err) {
			return &schedule.AccountEpoch{Account: account, Epoch: e}, nil
		}
		return nil, err
	}
	return ae, nil
}

func (s *Store) GetEpochTotals(ctx context.Context, e epoch.Epoch) (*schedule.EpochTotals, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT epoch, amount, weight, borrowed, reward, reward_claimed FROM lending_epoch_totals WHERE epoch = ?`,
		int64(e))

	var (
		ep                                             int64
		amount, weight, borrowed, reward, rewardClaimed string
	)
	if err := row.Scan(&ep, &amount, &weight, &borrowed, &reward, &rewardClaimed); err != nil {
		if isNoRows(err) {
			return &schedule.EpochTotals{Epoch: e}, nil
		}
		return nil, err
	}

	amounts, err := parseAmounts(amount, weight, borrowed, reward, rewardClaimed)
	if err != nil {
		return nil, err
	}
	return &schedule.EpochTotals{
		Epoch:         epoch.Epoch(ep),
		Amount:        amounts[0],
		Weight:        amounts[1],
		Borrowed:      amounts[2],
		Reward:        amounts[3],
		RewardClaimed: amounts[4],
	}, nil
}

func (s *Store) ListAccountEpochs(ctx context.Context, account common.Address, from, to epoch.Epoch) ([]*schedule.AccountEpoch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountEpochColumns+` FROM lending_account_epochs
		WHERE account = ? AND epoch >= ? AND epoch <= ? ORDER BY epoch ASC`,
		accountKey(account), int64(from), int64(to))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []*schedule.AccountEpoch
	for rows.Next() {
		ae, err := scanAccountEpoch(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, ae)
	}
	return result, rows.Err()
}

// ==================== Journal Store ====================

func (s *Store) ListJournal(ctx context.Context, opts journal.ListOpts) ([]*journal.Entry, error) {
	var (
		where []string
		args  []any
	)
	if opts.Account != nil {
		where = append(where, "account = ?")
		args = append(args, accountKey(*opts.Account))
	}
	if opts.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(opts.Kind))
	}

	query := `SELECT id, kind, account, epoch, start_epoch, end_epoch, amount, created_at FROM lending_journal`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq ASC" + limitClause(opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []*journal.Entry
	for rows.Next() {
		var (
			rawID, kind, account, amount, createdAt string
			ep, start, end                          int64
		)
		if err := rows.Scan(&rawID, &kind, &account, &ep, &start, &end, &amount, &createdAt); err != nil {
			return nil, err
		}
		entryID, err := id.ParseJournalEntryID(rawID)
		if err != nil {
			return nil, err
		}
		amt, err := types.ParseAmount(amount)
		if err != nil {
			return nil, err
		}
		ts, err := parseTime(createdAt)
		if err != nil {
			return nil, err
		}
		result = append(result, &journal.Entry{
			ID:         entryID,
			Kind:       journal.Kind(kind),
			Account:    common.HexToAddress(account),
			Epoch:      epoch.Epoch(ep),
			StartEpoch: epoch.Epoch(start),
			EndEpoch:   epoch.Epoch(end),
			Amount:     amt,
			CreatedAt:  ts,
		})
	}
	return result, rows.Err()
}

// ==================== Commit ====================

// Commit writes cs inside a single transaction.
func (s *Store) Commit(ctx context.Context, cs *lendingstore.Changeset) error {
	if cs.IsEmpty() {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("lending/sqlite: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, p := range cs.Positions {
		_, err := tx.ExecContext(ctx, `INSERT INTO lending_positions (`+positionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (account) DO UPDATE SET
				id = excluded.id,
				principal = excluded.principal,
				start_epoch = excluded.start_epoch,
				end_epoch = excluded.end_epoch,
				updated_at = excluded.updated_at`,
			p.ID.String(), accountKey(p.Account), p.Principal.String(),
			int64(p.StartEpoch), int64(p.EndEpoch),
			formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
		if err != nil {
			return fmt.Errorf("lending/sqlite: upsert position: %w", err)
		}
	}

	for _, ae := range cs.AccountEpochs {
		_, err := tx.ExecContext(ctx, `INSERT INTO lending_account_epochs (`+accountEpochColumns+`)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (account, epoch) DO UPDATE SET
				amount = excluded.amount,
				weight = excluded.weight,
				borrowed = excluded.borrowed,
				claimed = excluded.claimed`,
			accountKey(ae.Account), int64(ae.Epoch),
			ae.Amount.String(), ae.Weight.String(), ae.Borrowed.String(), ae.Claimed)
		if err != nil {
			return fmt.Errorf("lending/sqlite: upsert account epoch: %w", err)
		}
	}

	for _, t := range cs.EpochTotals {
		_, err := tx.ExecContext(ctx, `INSERT INTO lending_epoch_totals (epoch, amount, weight, borrowed, reward, reward_claimed)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (epoch) DO UPDATE SET
				amount = excluded.amount,
				weight = excluded.weight,
				borrowed = excluded.borrowed,
				reward = excluded.reward,
				reward_claimed = excluded.reward_claimed`,
			int64(t.Epoch), t.Amount.String(), t.Weight.String(), t.Borrowed.String(),
			t.Reward.String(), t.RewardClaimed.String())
		if err != nil {
			return fmt.Errorf("lending/sqlite: upsert epoch totals: %w", err)
		}
	}

	for _, e := range cs.Journal {
		_, err := tx.ExecContext(ctx, `INSERT INTO lending_journal
			(id, kind, account, epoch, start_epoch, end_epoch, amount, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID.String(), string(e.Kind), accountKey(e.Account),
			int64(e.Epoch), int64(e.StartEpoch), int64(e.EndEpoch),
			e.Amount.String(), formatTime(e.CreatedAt))
		if err != nil {
			return fmt.Errorf("lending/sqlite: append journal: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("lending/sqlite: commit: %w", err)
	}
	return nil
}

// ==================== Helpers ====================

type scanner interface {
	Scan(dest ...any) error
}

func scanPosition(row scanner) (*position.Position, error) {
	var (
		rawID, account, principal, createdAt, updatedAt string
		start, end                                       int64
	)
	if err := row.Scan(&rawID, &account, &principal, &start, &end, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	posID, err := id.ParsePositionID(rawID)
	if err != nil {
		return nil, err
	}
	amt, err := types.ParseAmount(principal)
	if err != nil {
		return nil, err
	}
	created, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	updated, err := parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &position.Position{
		Entity:     types.Entity{CreatedAt: created, UpdatedAt: updated},
		ID:         posID,
		Account:    common.HexToAddress(account),
		Principal:  amt,
		StartEpoch: epoch.Epoch(start),
		EndEpoch:   epoch.Epoch(end),
	}, nil
}

func scanAccountEpoch(row scanner) (*schedule.AccountEpoch, error) {
	var (
		account, amount, weight, borrowed string
		ep                                int64
		claimed                           bool
	)
	if err := row.Scan(&account, &ep, &amount, &weight, &borrowed, &claimed); err != nil {
		return nil, err
	}

	amounts, err := parseAmounts(amount, weight, borrowed)
	if err != nil {
		return nil, err
	}
	return &schedule.AccountEpoch{
		Account:  common.HexToAddress(account),
		Epoch:    epoch.Epoch(ep),
		Amount:   amounts[0],
		Weight:   amounts[1],
		Borrowed: amounts[2],
		Claimed:  claimed,
	}, nil
}

func limitClause(limit, offset int) string {
	switch {
	case limit > 0:
		return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	case offset > 0:
		return fmt.Sprintf(" LIMIT -1 OFFSET %d", offset)
	default:
		return ""
	}
}

func accountKey(a common.Address) string {
	return strings.ToLower(a.Hex())
}

func parseAmounts(values ...string) ([]types.Amount, error) {
	out := make([]types.Amount, len(values))
	for i, v := range values {
		a, err := types.ParseAmount(v)
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("lending/sqlite: parse time %q: %w", s, err)
	}
	return t, nil
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
