// Package mint drives the token-gated paid mint: check balance,
// conditionally obtain spending authorization, submit the claim, and
// await confirmation, folding every failure into a small closed set of
// user-facing categories.
package mint

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tokendeck/tokendeck/internal/ledger"
	"github.com/tokendeck/tokendeck/internal/log"
	"github.com/tokendeck/tokendeck/pkg/types"
)

// Phase tracks a mint attempt's position in the sequence. Phases only
// advance; Done and Failed are terminal.
type Phase int

// Mint attempt phases.
const (
	PhaseCheckingBalance Phase = iota
	PhaseCheckingAllowance
	PhaseApproving
	PhaseAwaitingApprovalConfirmation
	PhaseClaiming
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseCheckingBalance:
		return "checking balance"
	case PhaseCheckingAllowance:
		return "checking allowance"
	case PhaseApproving:
		return "approving spend"
	case PhaseAwaitingApprovalConfirmation:
		return "awaiting approval confirmation"
	case PhaseClaiming:
		return "claiming"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Progress is invoked once per phase transition with a human detail line.
type Progress func(phase Phase, detail string)

// Policy is the mint policy: what to claim, with which currency, at
// what price. With RemotePrice set, price and currency come from the
// ledger's claim condition instead, read fresh per attempt.
type Policy struct {
	ClaimContract    types.Address
	Currency         types.Address
	CurrencySymbol   string
	CurrencyDecimals uint8
	TokenID          uint64
	Quantity         uint64
	PricePerUnit     uint64
	RemotePrice      bool
}

// Orchestrator runs the mint sequence. It submits at most one
// authorization write and at most one claim write per invocation and
// never retries a write on its own: after a fault the caller re-invokes
// Mint, which re-reads balance and allowance first.
type Orchestrator struct {
	client   ledger.Client
	policy   Policy
	progress Progress
	log      zerolog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithProgress registers a phase-transition callback.
func WithProgress(fn Progress) Option {
	return func(o *Orchestrator) { o.progress = fn }
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// New creates a mint orchestrator.
func New(client ledger.Client, policy Policy, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client: client,
		policy: policy,
		log:    log.Mint,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// attempt is the ephemeral state of one Mint invocation.
type attempt struct {
	phase    Phase
	required uint64
	balance  uint64
	allowed  uint64
}

// advance moves the attempt forward, enforcing the forward-only phase
// invariant, and reports the transition.
func (o *Orchestrator) advance(a *attempt, next Phase, detail string) {
	if next <= a.phase {
		// Phase regressions are bugs, not user errors.
		o.log.Error().Stringer("from", a.phase).Stringer("to", next).Msg("phase regression")
		return
	}
	a.phase = next
	o.log.Debug().Stringer("phase", next).Msg(detail)
	if o.progress != nil {
		o.progress(next, detail)
	}
}

// fail marks the attempt terminal and classifies the cause.
func (o *Orchestrator) fail(a *attempt, err error) *ClassifiedError {
	a.phase = PhaseFailed
	ce := Classify(err)
	o.log.Warn().Str("category", string(ce.Category)).Err(ce.Cause).Msg("mint failed")
	if o.progress != nil {
		o.progress(PhaseFailed, ce.Message)
	}
	return ce
}

// fmtAmount renders a currency amount with the policy's symbol.
func (o *Orchestrator) fmtAmount(v uint64) string {
	return fmt.Sprintf("%s %s", types.FormatUnits(v, o.policy.CurrencyDecimals), o.policy.CurrencySymbol)
}

// Mint runs the balance → allowance → approve → claim sequence for
// holder and returns the claim's transaction hash. Every failure is a
// *ClassifiedError.
func (o *Orchestrator) Mint(ctx context.Context, holder types.Address) (types.Hash, error) {
	a := &attempt{phase: Phase(-1)}

	if holder.IsZero() {
		return types.Hash{}, o.fail(a, newClassified(CategoryNotConnected,
			"Wallet not connected. Run 'connect' first."))
	}

	policy := o.policy
	if policy.RemotePrice {
		cond, err := o.client.ClaimCondition(ctx, holder)
		if err != nil {
			return types.Hash{}, o.fail(a, err)
		}
		if !cond.Active {
			return types.Hash{}, o.fail(a, newClassified(CategoryNoActiveOffer,
				"no active mint offer right now"))
		}
		if cond.MaxPerWallet > 0 && cond.WalletClaimed+policy.Quantity > cond.MaxPerWallet {
			return types.Hash{}, o.fail(a, newClassified(CategoryLimitExceeded,
				fmt.Sprintf("mint limit reached: %d of %d already claimed", cond.WalletClaimed, cond.MaxPerWallet)))
		}
		policy.PricePerUnit = cond.PricePerUnit
		if !cond.Currency.IsZero() {
			policy.Currency = cond.Currency
		}
	}
	a.required = policy.PricePerUnit * policy.Quantity

	o.advance(a, PhaseCheckingBalance, fmt.Sprintf("checking %s balance", policy.CurrencySymbol))
	balance, err := o.client.FungibleBalance(ctx, holder)
	if err != nil {
		return types.Hash{}, o.fail(a, err)
	}
	a.balance = balance
	if balance < a.required {
		return types.Hash{}, o.fail(a, newClassified(CategoryInsufficientFunds,
			fmt.Sprintf("insufficient funds: need %s, have %s",
				o.fmtAmount(a.required), o.fmtAmount(balance))))
	}

	o.advance(a, PhaseCheckingAllowance, "checking spend authorization")
	allowed, err := o.client.SpendAuthorization(ctx, holder, policy.ClaimContract)
	if err != nil {
		return types.Hash{}, o.fail(a, err)
	}
	a.allowed = allowed

	if allowed < a.required {
		// Approve exactly the required amount, never unlimited.
		o.advance(a, PhaseApproving, fmt.Sprintf("authorizing %s", o.fmtAmount(a.required)))
		handle, err := o.client.SetSpendAuthorization(ctx, policy.ClaimContract, a.required)
		if err != nil {
			return types.Hash{}, o.fail(a, err)
		}

		o.advance(a, PhaseAwaitingApprovalConfirmation, "waiting for approval confirmation")
		if _, err := o.client.AwaitConfirmation(ctx, handle); err != nil {
			return types.Hash{}, o.fail(a, err)
		}
	}

	o.advance(a, PhaseClaiming, fmt.Sprintf("claiming %d for %s", policy.Quantity, o.fmtAmount(a.required)))
	handle, err := o.client.SubmitPaymentClaim(ctx, ledger.Claim{
		Receiver:     holder,
		TokenID:      policy.TokenID,
		Quantity:     policy.Quantity,
		Currency:     policy.Currency,
		PricePerUnit: policy.PricePerUnit,
		Proof:        nil, // default open allow-list
	})
	if err != nil {
		return types.Hash{}, o.fail(a, err)
	}
	receipt, err := o.client.AwaitConfirmation(ctx, handle)
	if err != nil {
		return types.Hash{}, o.fail(a, err)
	}

	o.advance(a, PhaseDone, "mint confirmed "+receipt.TxHash.String())
	o.log.Info().Str("tx", receipt.TxHash.String()).Uint64("block", receipt.BlockNumber).Msg("mint confirmed")
	return receipt.TxHash, nil
}
