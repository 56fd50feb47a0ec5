package mint

import (
	"context"
	"errors"
	"strings"

	"github.com/tokendeck/tokendeck/internal/ledger"
)

// Category is the closed taxonomy every mint failure is folded into.
type Category string

// Failure categories.
const (
	CategoryNotConnected        Category = "NOT_CONNECTED"
	CategoryInsufficientFunds   Category = "INSUFFICIENT_FUNDS"
	CategoryUserRejected        Category = "USER_REJECTED"
	CategoryConfirmationTimeout Category = "CONFIRMATION_TIMEOUT"
	CategoryNoActiveOffer       Category = "NO_ACTIVE_OFFER"
	CategoryLimitExceeded       Category = "LIMIT_EXCEEDED"
	CategoryRemoteRejected      Category = "REMOTE_REJECTED"
	CategoryUnknown             Category = "UNKNOWN"
)

// ClassifiedError is the normalized form of an arbitrary remote fault.
// Only Classify and the orchestrator's precondition checks construct
// one; callers never build them ad hoc.
type ClassifiedError struct {
	Category Category
	Message  string
	Cause    error
}

func (e *ClassifiedError) Error() string {
	return e.Message
}

func (e *ClassifiedError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether re-invoking mint makes sense without an
// external state change. ConfirmationTimeout is retry-safe because the
// orchestrator re-reads allowance and balance before every write.
func (e *ClassifiedError) Retryable() bool {
	switch e.Category {
	case CategoryUserRejected, CategoryConfirmationTimeout:
		return true
	default:
		return false
	}
}

// newClassified builds a ClassifiedError for precondition failures the
// orchestrator detects itself (no remote fault involved).
func newClassified(category Category, message string) *ClassifiedError {
	return &ClassifiedError{Category: category, Message: message}
}

// Classify folds a raw fault into exactly one ClassifiedError. An error
// that is already classified passes through unchanged.
func Classify(err error) *ClassifiedError {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}

	if errors.Is(err, ledger.ErrConfirmationTimedOut) ||
		errors.Is(err, context.DeadlineExceeded) {
		return &ClassifiedError{
			Category: CategoryConfirmationTimeout,
			Message:  "transaction not confirmed in time; re-run 'mint' to re-check state before retrying",
			Cause:    err,
		}
	}

	msg := strings.ToLower(err.Error())

	switch {
	case containsAny(msg, "user rejected", "user denied", "rejected the request", "signature denied"):
		return &ClassifiedError{
			Category: CategoryUserRejected,
			Message:  "request was rejected by the signer; safe to retry",
			Cause:    err,
		}
	case containsAny(msg, "insufficient funds", "insufficient balance", "transfer amount exceeds balance"):
		return &ClassifiedError{
			Category: CategoryInsufficientFunds,
			Message:  "insufficient funds for this mint",
			Cause:    err,
		}
	case containsAny(msg, "no active condition", "no active claim", "claim inactive", "minting paused", "!condition"):
		return &ClassifiedError{
			Category: CategoryNoActiveOffer,
			Message:  "no active mint offer right now",
			Cause:    err,
		}
	case containsAny(msg, "quantity limit", "exceeds max", "claim limit", "!qty"):
		return &ClassifiedError{
			Category: CategoryLimitExceeded,
			Message:  "mint limit reached for this wallet",
			Cause:    err,
		}
	case strings.Contains(msg, "execution reverted"):
		return &ClassifiedError{
			Category: CategoryRemoteRejected,
			Message:  "transaction reverted: " + revertReason(err.Error()),
			Cause:    err,
		}
	default:
		return &ClassifiedError{
			Category: CategoryUnknown,
			Message:  "mint failed: " + err.Error(),
			Cause:    err,
		}
	}
}

// revertReason extracts the best-effort reason string from an
// "execution reverted: <reason>" fault message.
func revertReason(msg string) string {
	const marker = "execution reverted"
	idx := strings.Index(strings.ToLower(msg), marker)
	if idx < 0 {
		return msg
	}
	reason := strings.TrimLeft(msg[idx+len(marker):], ": ")
	if reason == "" {
		return "no reason given"
	}
	return reason
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
