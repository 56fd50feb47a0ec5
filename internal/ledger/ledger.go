// Package ledger is the client façade over the remote chain: token
// balance reads, spend-authorization reads and writes, and the paid
// claim transaction, plus confirmation tracking for submitted writes.
//
// Reads are idempotent and safe to retry. Writes are not: submitting
// the same write twice may produce two on-chain effects, so callers
// must re-read state before deciding a write is still necessary.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/tokendeck/tokendeck/pkg/types"
)

// ErrConfirmationTimedOut is returned by AwaitConfirmation when a
// submitted write does not reach a terminal state within the bounded
// wait. The write may or may not have landed.
var ErrConfirmationTimedOut = errors.New("confirmation wait elapsed")

// Fault is the uniform failure value for every remote operation.
// Code carries the RPC error code when the node rejected the call;
// transport-level failures have Code 0.
type Fault struct {
	Code    int
	Message string
	Err     error
}

func (f *Fault) Error() string {
	if f.Code != 0 {
		return fmt.Sprintf("ledger fault %d: %s", f.Code, f.Message)
	}
	return "ledger fault: " + f.Message
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// NewFault wraps an arbitrary error into a Fault. An error that is
// already a Fault passes through unchanged.
func NewFault(err error) *Fault {
	var f *Fault
	if errors.As(err, &f) {
		return f
	}
	return &Fault{Message: err.Error(), Err: err}
}

// SubmissionHandle is an opaque reference to a not-yet-confirmed write.
type SubmissionHandle struct {
	TxHash types.Hash
}

// Receipt is the terminal on-chain state of a confirmed submission.
type Receipt struct {
	TxHash      types.Hash
	BlockNumber uint64
	// Status is 1 for success, 0 for a reverted execution.
	Status uint64
	// Reason carries the best-effort extracted revert reason when
	// Status is 0.
	Reason string
}

// Claim describes a paid-mint transaction.
type Claim struct {
	Receiver     types.Address
	TokenID      uint64
	Quantity     uint64
	Currency     types.Address
	PricePerUnit uint64
	// Proof is the allow-list proof. Empty means the default open
	// allow-list policy.
	Proof []string
}

// OwnedToken is one entry of a holder's NFT inventory.
type OwnedToken struct {
	TokenID  uint64 `json:"token_id"`
	Name     string `json:"name"`
	Quantity uint64 `json:"quantity"`
}

// ClaimCondition is the remote state gating the paid mint.
type ClaimCondition struct {
	Active        bool          `json:"active"`
	Currency      types.Address `json:"currency"`
	PricePerUnit  uint64        `json:"price_per_unit"`
	MaxPerWallet  uint64        `json:"max_per_wallet"` // 0 = unlimited
	WalletClaimed uint64        `json:"wallet_claimed"`
}

// Client is the remote ledger façade. All operations fail with a
// *Fault; implementations never surface raw transport errors.
type Client interface {
	// NativeBalance reads the holder's native-coin balance.
	NativeBalance(ctx context.Context, holder types.Address) (uint64, error)
	// FungibleBalance reads the holder's payment-currency balance.
	// Returns 0 (not an error) for an unset holder, an unknown
	// account, or a transient read failure.
	FungibleBalance(ctx context.Context, holder types.Address) (uint64, error)
	// SpendAuthorization reads the standing authorization the holder
	// has granted to spender. 0 if none.
	SpendAuthorization(ctx context.Context, holder, spender types.Address) (uint64, error)
	// SetSpendAuthorization submits an authorization-setting write for
	// the session account. Not idempotent.
	SetSpendAuthorization(ctx context.Context, spender types.Address, amount uint64) (SubmissionHandle, error)
	// SubmitPaymentClaim submits the paid-claim write. Not idempotent.
	SubmitPaymentClaim(ctx context.Context, claim Claim) (SubmissionHandle, error)
	// AwaitConfirmation blocks until the submission reaches a terminal
	// state or the bounded wait elapses (ErrConfirmationTimedOut).
	AwaitConfirmation(ctx context.Context, h SubmissionHandle) (*Receipt, error)
	// OwnedTokens lists the holder's NFT inventory on the claim contract.
	OwnedTokens(ctx context.Context, holder types.Address) ([]OwnedToken, error)
	// ClaimCondition reads the active claim condition as seen by holder.
	ClaimCondition(ctx context.Context, holder types.Address) (*ClaimCondition, error)
}
