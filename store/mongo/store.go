package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/lending"
	"github.com/xraph/lending/epoch"
	"github.com/xraph/lending/journal"
	"github.com/xraph/lending/position"
	"github.com/xraph/lending/schedule"
	lendingstore "github.com/xraph/lending/store"
)

// Collection name constants.
const (
	colPositions     = "lending_positions"
	colAccountEpochs = "lending_account_epochs"
	colEpochTotals   = "lending_epoch_totals"
	colJournal       = "lending_journal"
	colCounters      = "lending_counters"
)

// compile-time interface check
var _ lendingstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM. Commit needs a
// replica set or sharded cluster, since it runs in a multi-document
// transaction.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all lending collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("lending/mongo: migrate %s indexes: %w", col, err)
		}
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
	var m positionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": accountKey(account)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, lending.ErrPositionNotFound
		}
		return nil, fmt.Errorf("lending/mongo: get position: %w", err)
	}
	return fromPositionModel(&m)
}

func (s *Store) ListPositions(ctx context.Context, opts position.ListOpts) ([]*position.Position, error) {
	var models []positionModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("lending/mongo: list positions: %w", err)
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
	var m accountEpochModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": accountEpochKey(account, e)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return &schedule.AccountEpoch{Account: account, Epoch: e}, nil
		}
		return nil, fmt.Errorf("lending/mongo: get account epoch: %w", err)
	}
	return fromAccountEpochModel(&m)
}

func (s *Store) GetEpochTotals(ctx context.Context, e epoch.Epoch) (*schedule.EpochTotals, error) {
	var m epochTotalsModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(e)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return &schedule.EpochTotals{Epoch: e}, nil
		}
		return nil, fmt.Errorf("lending/mongo: get epoch totals: %w", err)
	}
	return fromEpochTotalsModel(&m)
}

func (s *Store) ListAccountEpochs(ctx context.Context, account common.Address, from, to epoch.Epoch) ([]*schedule.AccountEpoch, error) {
	var models []accountEpochModel

	err := s.mdb.NewFind(&models).
		Filter(bson.M{
			"account": accountKey(account),
			"epoch":   bson.M{"$gte": int64(from), "$lte": int64(to)},
		}).
		Sort(bson.D{{Key: "epoch", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("lending/mongo: list account epochs: %w", err)
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

	filter := bson.M{}
	if opts.Account != nil {
		filter["account"] = accountKey(*opts.Account)
	}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "seq", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("lending/mongo: list journal: %w", err)
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

// Commit writes cs inside a single session transaction.
func (s *Store) Commit(ctx context.Context, cs *lendingstore.Changeset) error {
	if cs.IsEmpty() {
		return nil
	}

	raw, err := s.mdb.GroveTx(ctx, 0, false)
	if err != nil {
		return fmt.Errorf("lending/mongo: begin: %w", err)
	}
	tx, ok := raw.(*mongodriver.MongoTx)
	if !ok {
		return fmt.Errorf("lending/mongo: unexpected transaction type %T", raw)
	}

	if err := s.apply(ctx, tx, cs); err != nil {
		_ = tx.Rollback() //nolint:errcheck // the apply error is the one worth returning
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("lending/mongo: commit: %w", err)
	}
	return nil
}

func (s *Store) apply(ctx context.Context, tx *mongodriver.MongoTx, cs *lendingstore.Changeset) error {
	for _, p := range cs.Positions {
		m := toPositionModel(p)
		_, err := tx.NewUpdate(m).
			Filter(bson.M{"_id": m.Account}).
			SetUpdate(bson.M{"$set": bson.M{
				"id":          m.ID,
				"principal":   m.Principal,
				"start_epoch": m.StartEpoch,
				"end_epoch":   m.EndEpoch,
				"created_at":  m.CreatedAt,
				"updated_at":  m.UpdatedAt,
			}}).
			Upsert().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("lending/mongo: upsert position: %w", err)
		}
	}

	for _, ae := range cs.AccountEpochs {
		m := toAccountEpochModel(ae)
		_, err := tx.NewUpdate(m).
			Filter(bson.M{"_id": m.Key}).
			SetUpdate(bson.M{"$set": bson.M{
				"account":  m.Account,
				"epoch":    m.Epoch,
				"amount":   m.Amount,
				"weight":   m.Weight,
				"borrowed": m.Borrowed,
				"claimed":  m.Claimed,
			}}).
			Upsert().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("lending/mongo: upsert account epoch: %w", err)
		}
	}

	for _, t := range cs.EpochTotals {
		m := toEpochTotalsModel(t)
		_, err := tx.NewUpdate(m).
			Filter(bson.M{"_id": m.Epoch}).
			SetUpdate(bson.M{"$set": bson.M{
				"amount":         m.Amount,
				"weight":         m.Weight,
				"borrowed":       m.Borrowed,
				"reward":         m.Reward,
				"reward_claimed": m.RewardClaimed,
			}}).
			Upsert().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("lending/mongo: upsert epoch totals: %w", err)
		}
	}

	if len(cs.Journal) == 0 {
		return nil
	}

	last, err := s.reserveSeq(tx.SessionContext(ctx), int64(len(cs.Journal)))
	if err != nil {
		return err
	}
	first := last - int64(len(cs.Journal)) + 1

	models := make([]journalModel, len(cs.Journal))
	for i, e := range cs.Journal {
		models[i] = toJournalModel(e, first+int64(i))
	}
	if _, err := tx.NewInsert(&models).Exec(ctx); err != nil {
		return fmt.Errorf("lending/mongo: append journal: %w", err)
	}

	return nil
}

// reserveSeq advances the journal counter by n and returns its new value.
func (s *Store) reserveSeq(ctx context.Context, n int64) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}

	err := s.mdb.Collection(colCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": colJournal},
		bson.M{"$inc": bson.M{"seq": n}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("lending/mongo: reserve journal sequence: %w", err)
	}
	return counter.Seq, nil
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all lending collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colPositions: {
			{
				Keys:    bson.D{{Key: "id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colAccountEpochs: {
			{Keys: bson.D{{Key: "account", Value: 1}, {Key: "epoch", Value: 1}}},
		},
		colJournal: {
			{
				Keys:    bson.D{{Key: "seq", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "account", Value: 1}, {Key: "seq", Value: 1}}},
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "seq", Value: 1}}},
		},
	}
}
