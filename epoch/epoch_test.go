package epoch_test

import (
	"testing"
	"time"

	"github.com/xraph/lending/epoch"
)

func TestFixedClockCurrent(t *testing.T) {
	genesis := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	length := 24 * time.Hour

	tests := []struct {
		name string
		now  time.Time
		want epoch.Epoch
	}{
		{"before genesis", genesis.Add(-time.Hour), 0},
		{"at genesis", genesis, 0},
		{"last instant of epoch 0", genesis.Add(length - time.Nanosecond), 0},
		{"start of epoch 1", genesis.Add(length), 1},
		{"mid epoch 9", genesis.Add(9*length + time.Hour), 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := tt.now
			c, err := epoch.NewFixedClock(genesis, length, epoch.WithNow(func() time.Time { return now }))
			if err != nil {
				t.Fatalf("NewFixedClock: %v", err)
			}
			if got := c.Current(); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFixedClockBoundaries(t *testing.T) {
	genesis := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c, err := epoch.NewFixedClock(genesis, time.Hour)
	if err != nil {
		t.Fatalf("NewFixedClock: %v", err)
	}
	if got := c.StartOf(3); !got.Equal(genesis.Add(3 * time.Hour)) {
		t.Errorf("StartOf(3) = %v", got)
	}
	if got := c.EndOf(3); !got.Equal(c.StartOf(4)) {
		t.Errorf("EndOf(3) = %v, want StartOf(4)", got)
	}
}

func TestFixedClockRejectsZeroLength(t *testing.T) {
	if _, err := epoch.NewFixedClock(time.Now(), 0); err != epoch.ErrInvalidLength {
		t.Errorf("got %v, want ErrInvalidLength", err)
	}
}

func TestManualClock(t *testing.T) {
	c := epoch.NewManualClock(time.Hour)
	if c.Current() != 0 {
		t.Fatalf("expected epoch 0, got %d", c.Current())
	}
	c.Advance(2)
	c.Advance(1)
	if c.Current() != 3 {
		t.Errorf("expected epoch 3, got %d", c.Current())
	}
	c.Set(10)
	if !c.Now().Equal(c.StartOf(10)) {
		t.Errorf("Now should sit at the start of the current epoch")
	}
}

func TestCount(t *testing.T) {
	tests := []struct {
		d, length time.Duration
		want      uint64
	}{
		{2 * time.Hour, time.Hour, 2},
		{2*time.Hour - time.Second, time.Hour, 1},
		{0, time.Hour, 0},
		{-time.Hour, time.Hour, 0},
		{time.Hour, 0, 0},
	}
	for _, tt := range tests {
		if got := epoch.Count(tt.d, tt.length); got != tt.want {
			t.Errorf("Count(%v, %v) = %d, want %d", tt.d, tt.length, got, tt.want)
		}
	}
}
