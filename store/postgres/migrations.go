package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Lending store.
var Migrations = migrate.NewGroup("lending")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_lending_positions",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS lending_positions (
    account     TEXT PRIMARY KEY,
    id          TEXT NOT NULL,
    principal   TEXT NOT NULL DEFAULT '0',
    start_epoch BIGINT NOT NULL DEFAULT 0,
    end_epoch   BIGINT NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_lending_positions_id ON lending_positions (id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS lending_positions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_lending_account_epochs",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS lending_account_epochs (
    account  TEXT NOT NULL,
    epoch    BIGINT NOT NULL,
    amount   TEXT NOT NULL DEFAULT '0',
    weight   TEXT NOT NULL DEFAULT '0',
    borrowed TEXT NOT NULL DEFAULT '0',
    claimed  BOOLEAN NOT NULL DEFAULT FALSE,
    PRIMARY KEY (account, epoch)
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS lending_account_epochs`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_lending_epoch_totals",
			Version: "20250101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS lending_epoch_totals (
    epoch          BIGINT PRIMARY KEY,
    amount         TEXT NOT NULL DEFAULT '0',
    weight         TEXT NOT NULL DEFAULT '0',
    borrowed       TEXT NOT NULL DEFAULT '0',
    reward         TEXT NOT NULL DEFAULT '0',
    reward_claimed TEXT NOT NULL DEFAULT '0'
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS lending_epoch_totals`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_lending_journal",
			Version: "20250101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS lending_journal (
    seq         BIGSERIAL,
    id          TEXT PRIMARY KEY,
    kind        TEXT NOT NULL,
    account     TEXT NOT NULL,
    epoch       BIGINT NOT NULL DEFAULT 0,
    start_epoch BIGINT NOT NULL DEFAULT 0,
    end_epoch   BIGINT NOT NULL DEFAULT 0,
    amount      TEXT NOT NULL DEFAULT '0',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_lending_journal_seq ON lending_journal (seq);
CREATE INDEX IF NOT EXISTS idx_lending_journal_account ON lending_journal (account, seq);
CREATE INDEX IF NOT EXISTS idx_lending_journal_kind ON lending_journal (kind, seq);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS lending_journal`)
				return err
			},
		},
	)
}
