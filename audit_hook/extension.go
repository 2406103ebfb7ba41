// Package audithook bridges Lending journal entries to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import any
// audit backend directly. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/lending/journal"
	"github.com/xraph/lending/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin              = (*Extension)(nil)
	_ plugin.OnLended            = (*Extension)(nil)
	_ plugin.OnDurationIncreased = (*Extension)(nil)
	_ plugin.OnBorrowed          = (*Extension)(nil)
	_ plugin.OnReleased          = (*Extension)(nil)
	_ plugin.OnRewardDeposited   = (*Extension)(nil)
	_ plugin.OnRewardClaimed     = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Lending journal entries to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Commitment hooks
// ──────────────────────────────────────────────────

// OnLended implements plugin.OnLended.
func (e *Extension) OnLended(ctx context.Context, entry *journal.Entry) error {
	return e.record(ctx, ActionLended, ResourcePosition, CategoryCommitment, entry,
		"start_epoch", uint64(entry.StartEpoch),
		"end_epoch", uint64(entry.EndEpoch),
	)
}

// OnDurationIncreased implements plugin.OnDurationIncreased.
func (e *Extension) OnDurationIncreased(ctx context.Context, entry *journal.Entry) error {
	return e.record(ctx, ActionDurationIncreased, ResourcePosition, CategoryCommitment, entry,
		"start_epoch", uint64(entry.StartEpoch),
		"end_epoch", uint64(entry.EndEpoch),
	)
}

// ──────────────────────────────────────────────────
// Capacity hooks
// ──────────────────────────────────────────────────

// OnBorrowed implements plugin.OnBorrowed.
func (e *Extension) OnBorrowed(ctx context.Context, entry *journal.Entry) error {
	return e.record(ctx, ActionBorrowed, ResourceCapacity, CategoryCapacity, entry,
		"epoch", uint64(entry.Epoch),
	)
}

// OnReleased implements plugin.OnReleased.
func (e *Extension) OnReleased(ctx context.Context, entry *journal.Entry) error {
	return e.record(ctx, ActionReleased, ResourceCapacity, CategoryCapacity, entry,
		"epoch", uint64(entry.Epoch),
	)
}

// ──────────────────────────────────────────────────
// Reward hooks
// ──────────────────────────────────────────────────

// OnRewardDeposited implements plugin.OnRewardDeposited.
func (e *Extension) OnRewardDeposited(ctx context.Context, entry *journal.Entry) error {
	return e.record(ctx, ActionRewardDeposited, ResourceReward, CategoryReward, entry,
		"epoch", uint64(entry.Epoch),
	)
}

// OnRewardClaimed implements plugin.OnRewardClaimed.
func (e *Extension) OnRewardClaimed(ctx context.Context, entry *journal.Entry) error {
	return e.record(ctx, ActionRewardClaimed, ResourceReward, CategoryReward, entry,
		"epoch", uint64(entry.Epoch),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled. The
// journal entry ID is the resource ID.
func (e *Extension) record(
	ctx context.Context,
	action, resource, category string,
	entry *journal.Entry,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+2)
	meta["account"] = entry.Account.Hex()
	meta["amount"] = entry.Amount.String()
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: entry.ID.String(),
		Metadata:   meta,
		Outcome:    OutcomeSuccess,
		Severity:   SeverityInfo,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", evt.ResourceID,
			"error", recErr,
		)
	}
	return nil
}
