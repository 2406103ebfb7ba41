package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/xraph/lending"
	"github.com/xraph/lending/epoch"
	"github.com/xraph/lending/journal"
	"github.com/xraph/lending/types"
)

func migrateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the ledger tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.run(cmd, func(context.Context, *lending.Ledger) error {
				fmt.Fprintf(cmd.OutOrStdout(), "database %s is up to date\n", g.db)
				return nil
			})
		},
	}
}

// windowFlags reads a commitment length given either as a duration or as a
// number of epochs.
type windowFlags struct {
	duration time.Duration
	epochs   uint64
}

func (w *windowFlags) bind(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&w.duration, "duration", 0, "commitment length as a duration")
	cmd.Flags().Uint64Var(&w.epochs, "epochs", 0, "commitment length in epochs")
}

func (w *windowFlags) resolve(length time.Duration) (time.Duration, error) {
	switch {
	case w.duration != 0 && w.epochs != 0:
		return 0, errors.New("use only one of --duration and --epochs")
	case w.epochs != 0:
		return time.Duration(w.epochs) * length, nil
	case w.duration != 0:
		return w.duration, nil
	default:
		return 0, errors.New("one of --duration or --epochs is required")
	}
}

func lendCmd(g *globalFlags) *cobra.Command {
	var w windowFlags
	cmd := &cobra.Command{
		Use:   "lend ACCOUNT AMOUNT",
		Short: "Commit principal for a number of epochs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := parseAccount(args[0])
			if err != nil {
				return err
			}
			amount, err := types.ParseAmount(args[1])
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, l *lending.Ledger) error {
				d, err := w.resolve(l.Clock().Length())
				if err != nil {
					return err
				}
				receipt, err := l.Lend(ctx, account, amount, d)
				if err != nil {
					return err
				}
				return printJSON(cmd, receipt)
			})
		},
	}
	w.bind(cmd)
	return cmd
}

func increaseDurationCmd(g *globalFlags) *cobra.Command {
	var w windowFlags
	cmd := &cobra.Command{
		Use:   "increase-duration ACCOUNT",
		Short: "Extend or renew an account's commitment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := parseAccount(args[0])
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, l *lending.Ledger) error {
				d, err := w.resolve(l.Clock().Length())
				if err != nil {
					return err
				}
				pos, err := l.IncreaseDuration(ctx, account, d)
				if err != nil {
					return err
				}
				return printJSON(cmd, pos)
			})
		},
	}
	w.bind(cmd)
	return cmd
}

func borrowCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "borrow BORROWER AMOUNT START [END]",
		Short: "Borrow capacity in one epoch or in every epoch of a range",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			borrower, err := parseAccount(args[0])
			if err != nil {
				return err
			}
			amount, err := types.ParseAmount(args[1])
			if err != nil {
				return err
			}
			start, err := parseEpoch(args[2])
			if err != nil {
				return err
			}
			end := start
			if len(args) == 4 {
				if end, err = parseEpoch(args[3]); err != nil {
					return err
				}
			}
			return g.run(cmd, func(ctx context.Context, l *lending.Ledger) error {
				if err := l.BorrowRange(ctx, amount, start, end, borrower); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "borrowed %s in epochs %d..%d\n", amount, start, end)
				return nil
			})
		},
	}
}

func releaseCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "release CALLER ACCOUNT EPOCH AMOUNT",
		Short: "Return borrowed capacity for an account (releasers only)",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := parseAccount(args[0])
			if err != nil {
				return err
			}
			account, err := parseAccount(args[1])
			if err != nil {
				return err
			}
			e, err := parseEpoch(args[2])
			if err != nil {
				return err
			}
			amount, err := types.ParseAmount(args[3])
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, l *lending.Ledger) error {
				if err := l.Release(ctx, caller, account, e, amount); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "released %s in epoch %d\n", amount, e)
				return nil
			})
		},
	}
}

func depositRewardCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "deposit-reward DEPOSITOR EPOCH AMOUNT",
		Short: "Deposit reward for a past epoch",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			depositor, err := parseAccount(args[0])
			if err != nil {
				return err
			}
			e, err := parseEpoch(args[1])
			if err != nil {
				return err
			}
			amount, err := types.ParseAmount(args[2])
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, l *lending.Ledger) error {
				if err := l.DepositReward(ctx, depositor, e, amount); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deposited %s for epoch %d\n", amount, e)
				return nil
			})
		},
	}
}

type claimResult struct {
	Account string       `json:"account"`
	Start   epoch.Epoch  `json:"start_epoch"`
	End     epoch.Epoch  `json:"end_epoch"`
	Amount  types.Amount `json:"amount"`
}

func claimCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "claim ACCOUNT EPOCH",
		Short: "Claim an account's reward share for one epoch",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := parseAccount(args[0])
			if err != nil {
				return err
			}
			e, err := parseEpoch(args[1])
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, l *lending.Ledger) error {
				amount, err := l.Claim(ctx, account, e)
				if err != nil {
					return err
				}
				return printJSON(cmd, claimResult{Account: account.Hex(), Start: e, End: e, Amount: amount})
			})
		},
	}
}

func claimRangeCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "claim-range ACCOUNT START END",
		Short: "Claim an account's reward share for every epoch of a range",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := parseAccount(args[0])
			if err != nil {
				return err
			}
			start, err := parseEpoch(args[1])
			if err != nil {
				return err
			}
			end, err := parseEpoch(args[2])
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, l *lending.Ledger) error {
				amount, err := l.ClaimRange(ctx, account, start, end)
				if err != nil {
					return err
				}
				return printJSON(cmd, claimResult{Account: account.Hex(), Start: start, End: end, Amount: amount})
			})
		},
	}
}

type epochReport struct {
	Epoch           epoch.Epoch  `json:"epoch"`
	Current         epoch.Epoch  `json:"current_epoch"`
	Amount          types.Amount `json:"amount"`
	Weight          types.Amount `json:"weight"`
	Borrowed        types.Amount `json:"borrowed"`
	Available       types.Amount `json:"available"`
	Reward          types.Amount `json:"reward"`
	RewardRemainder types.Amount `json:"reward_remainder"`
	UtilizationPPM  uint64       `json:"utilization_ppm"`
}

func epochCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "epoch [EPOCH]",
		Short: "Print the totals of an epoch (default: the current one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, l *lending.Ledger) error {
				e := l.CurrentEpoch()
				if len(args) == 1 {
					var err error
					if e, err = parseEpoch(args[0]); err != nil {
						return err
					}
				}
				t, err := l.EpochTotals(ctx, e)
				if err != nil {
					return err
				}
				util, err := l.UtilizationRatioByEpochsRange(ctx, e, e)
				if err != nil {
					return err
				}
				return printJSON(cmd, epochReport{
					Epoch:           e,
					Current:         l.CurrentEpoch(),
					Amount:          t.Amount,
					Weight:          t.Weight,
					Borrowed:        t.Borrowed,
					Available:       t.Available(),
					Reward:          t.Reward,
					RewardRemainder: t.RewardRemainder(),
					UtilizationPPM:  util[0],
				})
			})
		},
	}
}

func positionCmd(g *globalFlags) *cobra.Command {
	var withSchedule bool
	cmd := &cobra.Command{
		Use:   "position ACCOUNT",
		Short: "Print an account's position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := parseAccount(args[0])
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, l *lending.Ledger) error {
				pos, err := l.Position(ctx, account)
				if err != nil {
					return err
				}
				if !withSchedule {
					return printJSON(cmd, pos)
				}
				entries, err := l.Schedule(ctx, account, pos.StartEpoch, pos.EndEpoch)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]any{"position": pos, "schedule": entries})
			})
		},
	}
	cmd.Flags().BoolVar(&withSchedule, "schedule", false, "include the per-epoch entries")
	return cmd
}

func journalCmd(g *globalFlags) *cobra.Command {
	var (
		account string
		kind    string
		limit   int
		offset  int
	)
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List journal entries in commit order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := journal.ListOpts{Kind: journal.Kind(kind), Limit: limit, Offset: offset}
			if account != "" {
				a, err := parseAccount(account)
				if err != nil {
					return err
				}
				opts.Account = &a
			}
			return g.run(cmd, func(ctx context.Context, l *lending.Ledger) error {
				entries, err := l.Journal(ctx, opts)
				if err != nil {
					return err
				}
				return printJSON(cmd, entries)
			})
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "only entries of this account")
	cmd.Flags().StringVar(&kind, "kind", "", "only entries of this kind")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of entries")
	cmd.Flags().IntVar(&offset, "offset", 0, "entries to skip")
	return cmd
}

func parseEpoch(s string) (epoch.Epoch, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid epoch %q: %w", s, err)
	}
	return epoch.Epoch(v), nil
}
