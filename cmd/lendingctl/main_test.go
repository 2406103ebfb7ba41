package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice    = "0x00000000000000000000000000000000000000a1"
	bob      = "0x00000000000000000000000000000000000000b1"
	operator = "0x00000000000000000000000000000000000000c1"
)

// execute runs one lendingctl invocation against db pinned at epoch cur.
func execute(t *testing.T, db, cur string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{
		"--db", db,
		"--epoch", cur,
		"--epoch-length", "24h",
		"--precision", "1",
		"--releaser", operator,
	}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestLendBorrowClaim(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")

	_, err := execute(t, db, "0", "migrate")
	require.NoError(t, err)

	out, err := execute(t, db, "0", "lend", alice, "100", "--epochs", "3")
	require.NoError(t, err)
	var receipt struct {
		StartEpoch uint64 `json:"start_epoch"`
		EndEpoch   uint64 `json:"end_epoch"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &receipt))
	assert.Equal(t, uint64(1), receipt.StartEpoch)
	assert.Equal(t, uint64(2), receipt.EndEpoch)

	_, err = execute(t, db, "0", "borrow", bob, "60", "2")
	require.NoError(t, err)

	_, err = execute(t, db, "0", "borrow", bob, "50", "2", "3")
	assert.Error(t, err, "epoch 2 only has 40 left")

	out, err = execute(t, db, "0", "epoch", "2")
	require.NoError(t, err)
	var report struct {
		Borrowed       string `json:"borrowed"`
		Available      string `json:"available"`
		UtilizationPPM uint64 `json:"utilization_ppm"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "60", report.Borrowed)
	assert.Equal(t, "40", report.Available)
	assert.Equal(t, uint64(600_000), report.UtilizationPPM)

	_, err = execute(t, db, "0", "release", bob, bob, "2", "10")
	assert.Error(t, err, "bob is not a releaser")
	_, err = execute(t, db, "0", "release", operator, bob, "2", "10")
	require.NoError(t, err)

	_, err = execute(t, db, "2", "deposit-reward", operator, "1", "90")
	require.NoError(t, err)

	out, err = execute(t, db, "2", "claim", alice, "1")
	require.NoError(t, err)
	var claim struct {
		Amount string `json:"amount"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &claim))
	assert.Equal(t, "90", claim.Amount)

	_, err = execute(t, db, "2", "claim", alice, "1")
	assert.Error(t, err, "second claim pays nothing")

	out, err = execute(t, db, "2", "journal", "--account", alice)
	require.NoError(t, err)
	var entries []struct {
		Kind string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "lended", entries[0].Kind)
	assert.Equal(t, "reward_claimed", entries[1].Kind)
}

func TestLendRequiresOneWindowFlag(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")

	_, err := execute(t, db, "0", "lend", alice, "100")
	assert.Error(t, err)

	_, err = execute(t, db, "0", "lend", alice, "100", "--epochs", "2", "--duration", "48h")
	assert.Error(t, err)
}

func TestRejectsBadAccount(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")

	_, err := execute(t, db, "0", "position", "nobody")
	assert.Error(t, err)
}

func TestAuditFilter(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")

	out, err := execute(t, db, "0", "--audit", "--audit-action", "capacity.borrowed",
		"lend", alice, "100", "--epochs", "3")
	require.NoError(t, err)
	assert.NotContains(t, out, "commitment.lended")

	out, err = execute(t, db, "0", "--audit", "--audit-action", "capacity.borrowed",
		"borrow", bob, "10", "1")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "action=capacity.borrowed"), out)
}
