package lending

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrInvalidAmount = errors.New("lending: invalid amount")
	ErrInvalidEpoch  = errors.New("lending: invalid epoch")
	ErrUnauthorized  = errors.New("lending: unauthorized")

	// Lending errors
	ErrLendPeriodTooBig = errors.New("lending: lend period too big")
	ErrInvalidDuration  = errors.New("lending: invalid duration")
	ErrPositionNotFound = errors.New("lending: position not found")
	ErrNothingToRenew   = errors.New("lending: nothing to renew")

	// Capacity errors
	ErrAmountNotAvailableInEpoch = errors.New("lending: amount not available in epoch")

	// Reward errors
	ErrNothingToClaim                     = errors.New("lending: nothing to claim")
	ErrNotParticipatedInGovernanceAtEpoch = errors.New("lending: not participated in governance at epoch")

	// Store errors
	ErrStoreNotReady     = errors.New("lending: store not ready")
	ErrStoreClosed       = errors.New("lending: store is closed")
	ErrTransactionFailed = errors.New("lending: transaction failed")
	ErrMigrationFailed   = errors.New("lending: migration failed")
)

// EpochError attaches the epoch a per-epoch check failed at.
type EpochError struct {
	Epoch uint64
	Err   error
}

func (e *EpochError) Error() string {
	return fmt.Sprintf("%s: epoch %d", e.Err.Error(), e.Epoch)
}

func (e *EpochError) Unwrap() error { return e.Err }

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("lending: validation failed for %s: %s", e.Field, e.Message)
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "lending: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("lending: %d errors occurred", len(e.Errors))
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error {
	return e.Errors
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPositionNotFound) ||
		errors.Is(err, ErrNothingToRenew)
}

// IsCapacityError returns true if the error is a borrowing capacity failure.
func IsCapacityError(err error) bool {
	return errors.Is(err, ErrAmountNotAvailableInEpoch) ||
		errors.Is(err, ErrInvalidAmount)
}

// IsWindowError returns true if the error concerns a commitment window or
// an epoch argument.
func IsWindowError(err error) bool {
	return errors.Is(err, ErrLendPeriodTooBig) ||
		errors.Is(err, ErrInvalidEpoch) ||
		errors.Is(err, ErrInvalidDuration)
}

// IsClaimError returns true if a reward claim was refused.
func IsClaimError(err error) bool {
	return errors.Is(err, ErrNothingToClaim) ||
		errors.Is(err, ErrNotParticipatedInGovernanceAtEpoch)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed)
}
