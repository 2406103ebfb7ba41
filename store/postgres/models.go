package postgres

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/xraph/grove"

	"github.com/xraph/lending/epoch"
	"github.com/xraph/lending/id"
	"github.com/xraph/lending/journal"
	"github.com/xraph/lending/position"
	"github.com/xraph/lending/schedule"
	"github.com/xraph/lending/types"
)

// Amounts are stored as decimal TEXT so no precision is lost on either side
// of the driver. Accounts are stored as lower-case hex so that text order
// matches byte order.

// ==================== Position models ====================

type positionModel struct {
	grove.BaseModel `grove:"table:lending_positions"`

	ID         string    `grove:"id"`
	Account    string    `grove:"account,pk"`
	Principal  string    `grove:"principal"`
	StartEpoch int64     `grove:"start_epoch"`
	EndEpoch   int64     `grove:"end_epoch"`
	CreatedAt  time.Time `grove:"created_at"`
	UpdatedAt  time.Time `grove:"updated_at"`
}

func toPositionModel(p *position.Position) *positionModel {
	return &positionModel{
		ID:         p.ID.String(),
		Account:    accountKey(p.Account),
		Principal:  p.Principal.String(),
		StartEpoch: int64(p.StartEpoch),
		EndEpoch:   int64(p.EndEpoch),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func fromPositionModel(m *positionModel) (*position.Position, error) {
	posID, err := id.ParsePositionID(m.ID)
	if err != nil {
		return nil, err
	}
	principal, err := types.ParseAmount(m.Principal)
	if err != nil {
		return nil, err
	}

	return &position.Position{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:         posID,
		Account:    common.HexToAddress(m.Account),
		Principal:  principal,
		StartEpoch: epoch.Epoch(m.StartEpoch),
		EndEpoch:   epoch.Epoch(m.EndEpoch),
	}, nil
}

// ==================== Schedule models ====================

type accountEpochModel struct {
	grove.BaseModel `grove:"table:lending_account_epochs"`

	Account  string `grove:"account,pk"`
	Epoch    int64  `grove:"epoch,pk"`
	Amount   string `grove:"amount"`
	Weight   string `grove:"weight"`
	Borrowed string `grove:"borrowed"`
	Claimed  bool   `grove:"claimed"`
}

func toAccountEpochModel(ae *schedule.AccountEpoch) accountEpochModel {
	return accountEpochModel{
		Account:  accountKey(ae.Account),
		Epoch:    int64(ae.Epoch),
		Amount:   ae.Amount.String(),
		Weight:   ae.Weight.String(),
		Borrowed: ae.Borrowed.String(),
		Claimed:  ae.Claimed,
	}
}

func fromAccountEpochModel(m *accountEpochModel) (*schedule.AccountEpoch, error) {
	amounts, err := parseAmounts(m.Amount, m.Weight, m.Borrowed)
	if err != nil {
		return nil, err
	}

	return &schedule.AccountEpoch{
		Account:  common.HexToAddress(m.Account),
		Epoch:    epoch.Epoch(m.Epoch),
		Amount:   amounts[0],
		Weight:   amounts[1],
		Borrowed: amounts[2],
		Claimed:  m.Claimed,
	}, nil
}

type epochTotalsModel struct {
	grove.BaseModel `grove:"table:lending_epoch_totals"`

	Epoch         int64  `grove:"epoch,pk"`
	Amount        string `grove:"amount"`
	Weight        string `grove:"weight"`
	Borrowed      string `grove:"borrowed"`
	Reward        string `grove:"reward"`
	RewardClaimed string `grove:"reward_claimed"`
}

func toEpochTotalsModel(t *schedule.EpochTotals) epochTotalsModel {
	return epochTotalsModel{
		Epoch:         int64(t.Epoch),
		Amount:        t.Amount.String(),
		Weight:        t.Weight.String(),
		Borrowed:      t.Borrowed.String(),
		Reward:        t.Reward.String(),
		RewardClaimed: t.RewardClaimed.String(),
	}
}

func fromEpochTotalsModel(m *epochTotalsModel) (*schedule.EpochTotals, error) {
	amounts, err := parseAmounts(m.Amount, m.Weight, m.Borrowed, m.Reward, m.RewardClaimed)
	if err != nil {
		return nil, err
	}

	return &schedule.EpochTotals{
		Epoch:         epoch.Epoch(m.Epoch),
		Amount:        amounts[0],
		Weight:        amounts[1],
		Borrowed:      amounts[2],
		Reward:        amounts[3],
		RewardClaimed: amounts[4],
	}, nil
}

// ==================== Journal models ====================

type journalModel struct {
	grove.BaseModel `grove:"table:lending_journal"`

	ID         string    `grove:"id,pk"`
	Kind       string    `grove:"kind"`
	Account    string    `grove:"account"`
	Epoch      int64     `grove:"epoch"`
	StartEpoch int64     `grove:"start_epoch"`
	EndEpoch   int64     `grove:"end_epoch"`
	Amount     string    `grove:"amount"`
	CreatedAt  time.Time `grove:"created_at"`
}

func toJournalModel(e *journal.Entry) journalModel {
	return journalModel{
		ID:         e.ID.String(),
		Kind:       string(e.Kind),
		Account:    accountKey(e.Account),
		Epoch:      int64(e.Epoch),
		StartEpoch: int64(e.StartEpoch),
		EndEpoch:   int64(e.EndEpoch),
		Amount:     e.Amount.String(),
		CreatedAt:  e.CreatedAt,
	}
}

func fromJournalModel(m *journalModel) (*journal.Entry, error) {
	entryID, err := id.ParseJournalEntryID(m.ID)
	if err != nil {
		return nil, err
	}
	amount, err := types.ParseAmount(m.Amount)
	if err != nil {
		return nil, err
	}

	return &journal.Entry{
		ID:         entryID,
		Kind:       journal.Kind(m.Kind),
		Account:    common.HexToAddress(m.Account),
		Epoch:      epoch.Epoch(m.Epoch),
		StartEpoch: epoch.Epoch(m.StartEpoch),
		EndEpoch:   epoch.Epoch(m.EndEpoch),
		Amount:     amount,
		CreatedAt:  m.CreatedAt,
	}, nil
}

// ==================== Helpers ====================

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
