package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/xraph/lending"
	audithook "github.com/xraph/lending/audit_hook"
	"github.com/xraph/lending/custody"
	"github.com/xraph/lending/epoch"
	"github.com/xraph/lending/store/sqlite"
	"github.com/xraph/lending/types"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	db          string
	genesis     string
	epochLength time.Duration
	epoch       int64
	precision   string
	maxEpochs   uint64
	releasers   []string
	verbose     bool
	audit       bool
	auditOnly   []string
}

// newRootCmd represents the base command when called without any subcommands.
func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "lendingctl",
		Short: "lendingctl operates an epoch commitment ledger stored in SQLite.",
		Long: `lendingctl operates an epoch commitment ledger stored in SQLite. ` +
			`Accounts commit principal over a window of epochs, borrowers draw capacity ` +
			`from each epoch, and rewards deposited for past epochs are claimed pro rata by weight.`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&g.db, "db", "lending.db", "path of the SQLite database")
	pf.StringVar(&g.genesis, "genesis", "1970-01-01T00:00:00Z", "RFC 3339 start of epoch 0")
	pf.DurationVar(&g.epochLength, "epoch-length", lending.DefaultEpochLength, "length of one epoch")
	pf.Int64Var(&g.epoch, "epoch", -1, "pin the current epoch instead of reading the wall clock")
	pf.StringVar(&g.precision, "precision", lending.DefaultPrecision.String(), "principal divisor applied before weighting")
	pf.Uint64Var(&g.maxEpochs, "max-epochs", lending.DefaultMaxCommitmentEpochs, "maximum epochs a position may cover")
	pf.StringSliceVar(&g.releasers, "releaser", nil, "account allowed to release borrowed capacity (repeatable)")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "log debug output to stderr")
	pf.BoolVar(&g.audit, "audit", false, "log an audit event to stderr for every committed mutation")
	pf.StringSliceVar(&g.auditOnly, "audit-action", nil, "with --audit, only log these actions (repeatable)")

	rootCmd.AddCommand(
		migrateCmd(g),
		lendCmd(g),
		increaseDurationCmd(g),
		borrowCmd(g),
		releaseCmd(g),
		depositRewardCmd(g),
		claimCmd(g),
		claimRangeCmd(g),
		epochCmd(g),
		positionCmd(g),
		journalCmd(g),
	)

	return rootCmd
}

// clock builds the epoch clock from the flags.
func (g *globalFlags) clock() (epoch.Clock, error) {
	genesis, err := time.Parse(time.RFC3339, g.genesis)
	if err != nil {
		return nil, fmt.Errorf("invalid --genesis: %w", err)
	}

	var opts []epoch.Option
	if g.epoch >= 0 {
		pinned := genesis.Add(time.Duration(g.epoch) * g.epochLength)
		opts = append(opts, epoch.WithNow(func() time.Time { return pinned }))
	}

	return epoch.NewFixedClock(genesis, g.epochLength, opts...)
}

// open opens the database, runs migrations and returns a started ledger
// logging to logOut.
// The returned func stops the ledger and closes the database.
func (g *globalFlags) open(ctx context.Context, logOut io.Writer) (*lending.Ledger, func(), error) {
	clock, err := g.clock()
	if err != nil {
		return nil, nil, err
	}
	precision, err := types.ParseAmount(g.precision)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid --precision: %w", err)
	}
	releasers := make([]common.Address, 0, len(g.releasers))
	for _, r := range g.releasers {
		a, err := parseAccount(r)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --releaser: %w", err)
		}
		releasers = append(releasers, a)
	}

	s, err := sqlite.Open(g.db)
	if err != nil {
		return nil, nil, err
	}

	level := slog.LevelWarn
	if g.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	opts := []lending.Option{
		lending.WithLogger(logger),
		lending.WithClock(clock),
		lending.WithCustodian(custody.NewVault(custody.WithLockStore(s))),
		lending.WithPrecision(precision),
		lending.WithMaxCommitmentEpochs(g.maxEpochs),
		lending.WithReleasers(releasers...),
	}
	if g.audit {
		opts = append(opts, lending.WithPlugin(auditLogger(logger, g.auditOnly)))
	}

	l, err := lending.New(s, opts...)
	if err != nil {
		_ = s.Close()
		return nil, nil, err
	}

	if err := l.Start(ctx); err != nil {
		_ = s.Close()
		return nil, nil, err
	}

	return l, func() { _ = l.Stop() }, nil
}

// auditLogger records audit events as structured log lines. A non-empty only
// restricts the logged actions.
func auditLogger(logger *slog.Logger, only []string) *audithook.Extension {
	rec := audithook.RecorderFunc(func(ctx context.Context, ev *audithook.AuditEvent) error {
		logger.LogAttrs(ctx, slog.LevelWarn, "audit",
			slog.String("action", ev.Action),
			slog.String("resource", ev.Resource),
			slog.String("resource_id", ev.ResourceID),
			slog.Any("metadata", ev.Metadata),
		)
		return nil
	})
	opts := []audithook.Option{audithook.WithLogger(logger)}
	if len(only) > 0 {
		opts = append(opts, audithook.WithEnabledActions(only...))
	}
	return audithook.New(rec, opts...)
}

// run opens the ledger around fn.
func (g *globalFlags) run(cmd *cobra.Command, fn func(ctx context.Context, l *lending.Ledger) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	l, closeFn, err := g.open(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeFn()

	return fn(ctx, l)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseAccount(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%q is not a hex address", s)
	}
	return common.HexToAddress(s), nil
}
