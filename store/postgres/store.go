package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	_ "github.com/xraph/grove/drivers/pgdriver/pgmigrate" // registers the "pg" migration executor
	"github.com/xraph/grove/migrate"

	"github.com/xraph/lending"
	"github.com/xraph/lending/epoch"
	"github.com/xraph/lending/journal"
	"github.com/xraph/lending/position"
	"github.com/xraph/lending/schedule"
	lendingstore "github.com/xraph/lending/store"
)

// compile-time interface check
var _ lendingstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("lending/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("lending/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Position Store ====================

func (s *Store) GetPosition(ctx context.Context, account common.Address) (*position.Position, error) {
	m := new(positionModel)
	err := s.pg.NewSelect(m).
		Where("account = $1", accountKey(account)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, lending.ErrPositionNotFound
		}
		return nil, err
	}
	return fromPositionModel(m)
}

func (s *Store) ListPositions(ctx context.Context, opts position.ListOpts) ([]*position.Position, error) {
	var models []positionModel
	q := s.pg.NewSelect(&models).OrderExpr("account ASC")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*position.Position, len(models))
	for i := range models {
		p, err := fromPositionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

// ==================== Schedule Store ====================

func (s *Store) GetAccountEpoch(ctx context.Context, account common.Address, e epoch.Epoch) (*schedule.AccountEpoch, error) {
	m := new(accountEpochModel)
	err := s.pg.NewSelect(m).
		Where("account = $1", accountKey(account)).
		Where("epoch = $2", int64(e)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return &schedule.AccountEpoch{Account: account, Epoch: e}, nil
		}
		return nil, err
	}
	return fromAccountEpochModel(m)
}

func (s *Store) GetEpochTotals(ctx context.Context, e epoch.Epoch) (*schedule.EpochTotals, error) {
	m := new(epochTotalsModel)
	err := s.pg.NewSelect(m).
		Where("epoch = $1", int64(e)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return &schedule.EpochTotals{Epoch: e}, nil
		}
		return nil, err
	}
	return fromEpochTotalsModel(m)
}

func (s *Store) ListAccountEpochs(ctx context.Context, account common.Address, from, to epoch.Epoch) ([]*schedule.AccountEpoch, error) {
	var models []accountEpochModel
	err := s.pg.NewSelect(&models).
		Where("account = $1", accountKey(account)).
		Where("epoch >= $2", int64(from)).
		Where("epoch <= $3", int64(to)).
		OrderExpr("epoch ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*schedule.AccountEpoch, len(models))
	for i := range models {
		ae, err := fromAccountEpochModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = ae
	}
	return result, nil
}

// ==================== Journal Store ====================

func (s *Store) ListJournal(ctx context.Context, opts journal.ListOpts) ([]*journal.Entry, error) {
	var models []journalModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if opts.Account != nil {
		argIdx++
		q = q.Where(fmt.Sprintf("account = $%d", argIdx), accountKey(*opts.Account))
	}
	if opts.Kind != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("kind = $%d", argIdx), string(opts.Kind))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("seq ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*journal.Entry, len(models))
	for i := range models {
		e, err := fromJournalModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}

// ==================== Commit ====================

// Commit writes cs inside a single transaction. Rows are upserted by key;
// journal entries are appended in order.
func (s *Store) Commit(ctx context.Context, cs *lendingstore.Changeset) error {
	if cs.IsEmpty() {
		return nil
	}

	tx, err := s.pg.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("lending/postgres: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, p := range cs.Positions {
		_, err := tx.NewInsert(toPositionModel(p)).
			OnConflict("(account) DO UPDATE").
			Set("id = EXCLUDED.id").
			Set("principal = EXCLUDED.principal").
			Set("start_epoch = EXCLUDED.start_epoch").
			Set("end_epoch = EXCLUDED.end_epoch").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("lending/postgres: upsert position: %w", err)
		}
	}

	if len(cs.AccountEpochs) > 0 {
		models := make([]accountEpochModel, len(cs.AccountEpochs))
		for i, ae := range cs.AccountEpochs {
			models[i] = toAccountEpochModel(ae)
		}
		_, err := tx.NewInsert(&models).
			OnConflict("(account, epoch) DO UPDATE").
			Set("amount = EXCLUDED.amount").
			Set("weight = EXCLUDED.weight").
			Set("borrowed = EXCLUDED.borrowed").
			Set("claimed = EXCLUDED.claimed").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("lending/postgres: upsert account epochs: %w", err)
		}
	}

	if len(cs.EpochTotals) > 0 {
		models := make([]epochTotalsModel, len(cs.EpochTotals))
		for i, t := range cs.EpochTotals {
			models[i] = toEpochTotalsModel(t)
		}
		_, err := tx.NewInsert(&models).
			OnConflict("(epoch) DO UPDATE").
			Set("amount = EXCLUDED.amount").
			Set("weight = EXCLUDED.weight").
			Set("borrowed = EXCLUDED.borrowed").
			Set("reward = EXCLUDED.reward").
			Set("reward_claimed = EXCLUDED.reward_claimed").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("lending/postgres: upsert epoch totals: %w", err)
		}
	}

	// One row per statement keeps seq in journal order.
	for _, e := range cs.Journal {
		m := toJournalModel(e)
		if _, err := tx.NewInsert(&m).Exec(ctx); err != nil {
			return fmt.Errorf("lending/postgres: append journal: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("lending/postgres: commit: %w", err)
	}
	return nil
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
