package audithook

// Action constants for audit events.
const (
	// Commitment actions
	ActionLended            = "commitment.lended"
	ActionDurationIncreased = "commitment.duration_increased"

	// Capacity actions
	ActionBorrowed = "capacity.borrowed"
	ActionReleased = "capacity.released"

	// Reward actions
	ActionRewardDeposited = "reward.deposited"
	ActionRewardClaimed   = "reward.claimed"
)

// Resource constants for audit events.
const (
	ResourcePosition = "position"
	ResourceCapacity = "capacity"
	ResourceReward   = "reward"
)

// Category constants for audit events.
const (
	CategoryCommitment = "commitment"
	CategoryCapacity   = "capacity"
	CategoryReward     = "reward"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
