package lending_test

import (
	"context"
	"log"
	"log/slog"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/lending"
	"github.com/xraph/lending/epoch"
	"github.com/xraph/lending/store/memory"
	"github.com/xraph/lending/types"
)

// TestDocumentationExamples verifies that the examples in the package
// documentation compile and run.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		clock, err := epoch.NewFixedClock(time.Now().Add(-30*24*time.Hour), 24*time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		operator := common.HexToAddress("0x0000000000000000000000000000000000000001")

		l, err := lending.New(store,
			lending.WithLogger(slog.Default()),
			lending.WithClock(clock),
			lending.WithReleasers(operator),
		)
		if err != nil {
			t.Fatal(err)
		}

		// Start the engine
		ctx := context.Background()
		if err := l.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer l.Stop()

		holder := common.HexToAddress("0x00000000000000000000000000000000000000a1")
		borrower := common.HexToAddress("0x00000000000000000000000000000000000000b1")

		// Lend 1000 tokens for 90 days
		receipt, err := l.Lend(ctx, holder, lending.Tokens(1000, 18), 90*24*time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("committed over epochs %d..%d\n", receipt.StartEpoch, receipt.EndEpoch)

		// Borrow against next epoch's capacity
		next := l.CurrentEpoch() + 1
		if err := l.Borrow(ctx, lending.Tokens(250, 18), next, borrower); err != nil {
			t.Fatal(err)
		}

		available, err := l.AvailableCapacity(ctx, next)
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("still available: %s\n", available.FormatUnits(18))
	})

	t.Run("AmountExamples", func(t *testing.T) {
		// Constructors
		_ = types.NewAmount(1000)
		_ = types.Tokens(5, 18) // 5e18
		a, err := types.ParseAmount("1000000000000000000")
		if err != nil {
			t.Fatal(err)
		}

		// Arithmetic
		b := a.Add(types.NewAmount(1))
		_ = b.Sub(a)
		_ = a.MulDiv(types.NewAmount(3), types.NewAmount(7))

		// Comparison
		if !a.LessThan(b) {
			t.Fatal("expected a < b")
		}

		// Formatting
		if got := a.FormatUnits(18); got != "1" {
			t.Fatalf("FormatUnits = %q", got)
		}
	})
}
