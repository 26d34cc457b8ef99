package economy

import (
	"errors"
	"fmt"
	"time"
)

// Validation and limit errors. All are rejected before any mutation; the
// operation's transaction rolls back with no state change.
var (
	ErrSelfTarget        = errors.New("cannot target yourself")
	ErrQuotaExceeded     = errors.New("daily quota reached for this action")
	ErrTargetTooPoor     = errors.New("target balance is below the stealable minimum")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrAmountTooLarge    = errors.New("amount exceeds the per-exchange limit")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// CooldownError rejects an action attempted before its cooldown elapsed.
// Remaining is the wait left, for the caller to render.
type CooldownError struct {
	Action    string
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s is on cooldown for another %s", e.Action, e.Remaining.Round(time.Second))
}
