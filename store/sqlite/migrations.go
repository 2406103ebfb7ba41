package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Lending store (SQLite).
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
    start_epoch INTEGER NOT NULL DEFAULT 0,
    end_epoch   INTEGER NOT NULL DEFAULT 0,
    created_at  TEXT NOT NULL DEFAULT '',
    updated_at  TEXT NOT NULL DEFAULT ''
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
    epoch    INTEGER NOT NULL,
    amount   TEXT NOT NULL DEFAULT '0',
    weight   TEXT NOT NULL DEFAULT '0',
    borrowed TEXT NOT NULL DEFAULT '0',
    claimed  INTEGER NOT NULL DEFAULT 0,
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
    epoch          INTEGER PRIMARY KEY,
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
    seq         INTEGER PRIMARY KEY AUTOINCREMENT,
    id          TEXT NOT NULL UNIQUE,
    kind        TEXT NOT NULL,
    account     TEXT NOT NULL,
    epoch       INTEGER NOT NULL DEFAULT 0,
    start_epoch INTEGER NOT NULL DEFAULT 0,
    end_epoch   INTEGER NOT NULL DEFAULT 0,
    amount      TEXT NOT NULL DEFAULT '0',
    created_at  TEXT NOT NULL DEFAULT ''
);

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
		&migrate.Migration{
			Name:    "create_lending_custody_locks",
			Version: "20250101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS lending_custody_locks (
    account TEXT PRIMARY KEY,
    amount  TEXT NOT NULL DEFAULT '0',
    until   TEXT NOT NULL DEFAULT ''
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS lending_custody_locks`)
				return err
			},
		},
	)
}
