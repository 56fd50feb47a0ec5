package mint

import (
	"context"
	"strings"
	"testing"

	"github.com/tokendeck/tokendeck/internal/ledger"
	"github.com/tokendeck/tokendeck/pkg/types"
)

var (
	holderAddr    = types.Address{0x01}
	claimContract = types.Address{0xD0}
	currencyAddr  = types.Address{0xC0}
)

func testPolicy() Policy {
	return Policy{
		ClaimContract:    claimContract,
		Currency:         currencyAddr,
		CurrencySymbol:   "GLD",
		CurrencyDecimals: 8,
		TokenID:          0,
		Quantity:         1,
		PricePerUnit:     100_000_000, // 1 GLD
	}
}

func fundedDevNet(currency uint64) *ledger.DevNet {
	d := ledger.NewDevNet()
	d.SetSigner(holderAddr)
	d.Fund(holderAddr, 0, currency)
	return d
}

func mustCategory(t *testing.T, err error, want Category) *ClassifiedError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	ce, ok := err.(*ClassifiedError)
	if !ok {
		t.Fatalf("error is %T, want *ClassifiedError", err)
	}
	if ce.Category != want {
		t.Fatalf("category = %s, want %s (message %q)", ce.Category, want, ce.Message)
	}
	return ce
}

func TestMintNotConnected(t *testing.T) {
	d := ledger.NewDevNet()
	o := New(d, testPolicy())

	_, err := o.Mint(context.Background(), types.Address{})
	mustCategory(t, err, CategoryNotConnected)

	// No remote calls at all: a later funded mint would still start
	// from a clean write count.
	if d.ApproveCalls() != 0 || d.ClaimCalls() != 0 {
		t.Fatal("NotConnected must not reach the ledger")
	}
}

// Scenario A: zero balance, required amount one unit.
func TestMintInsufficientFunds(t *testing.T) {
	d := fundedDevNet(0)
	o := New(d, testPolicy())

	_, err := o.Mint(context.Background(), holderAddr)
	ce := mustCategory(t, err, CategoryInsufficientFunds)

	if !strings.Contains(ce.Message, "1") || !strings.Contains(ce.Message, "0") {
		t.Fatalf("message should mention required and held amounts: %q", ce.Message)
	}
	if d.ApproveCalls() != 0 || d.ClaimCalls() != 0 {
		t.Fatal("insufficient funds must issue zero writes")
	}
}

// Scenario B: sufficient balance, zero prior authorization.
func TestMintApprovesThenClaims(t *testing.T) {
	d := fundedDevNet(300_000_000)
	var phases []Phase
	o := New(d, testPolicy(), WithProgress(func(p Phase, _ string) {
		phases = append(phases, p)
	}))

	hash, err := o.Mint(context.Background(), holderAddr)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if hash.IsZero() {
		t.Fatal("expected a transaction hash")
	}
	if d.ApproveCalls() != 1 {
		t.Fatalf("approve calls = %d, want exactly 1", d.ApproveCalls())
	}
	if d.ClaimCalls() != 1 {
		t.Fatalf("claim calls = %d, want exactly 1", d.ClaimCalls())
	}

	// The approval is for exactly the required amount.
	allowed, _ := d.SpendAuthorization(context.Background(), holderAddr, claimContract)
	if allowed != 0 {
		// 1 GLD approved, 1 GLD spent by the claim.
		t.Fatalf("residual allowance = %d, want 0", allowed)
	}

	want := []Phase{
		PhaseCheckingBalance,
		PhaseCheckingAllowance,
		PhaseApproving,
		PhaseAwaitingApprovalConfirmation,
		PhaseClaiming,
		PhaseDone,
	}
	if len(phases) != len(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Fatalf("phase[%d] = %s, want %s", i, phases[i], want[i])
		}
	}
}

// Scenario C: prior authorization already covers the required amount.
func TestMintSkipsApprovalWhenAuthorized(t *testing.T) {
	d := fundedDevNet(300_000_000)
	d.SetAllowance(holderAddr, claimContract, 200_000_000)
	o := New(d, testPolicy())

	hash, err := o.Mint(context.Background(), holderAddr)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if hash.IsZero() {
		t.Fatal("expected a transaction hash")
	}
	if d.ApproveCalls() != 0 {
		t.Fatalf("approve calls = %d, want 0 (idempotent allowance check)", d.ApproveCalls())
	}
	if d.ClaimCalls() != 1 {
		t.Fatalf("claim calls = %d, want 1", d.ClaimCalls())
	}
}

func TestMintUserRejected(t *testing.T) {
	d := fundedDevNet(300_000_000)
	d.RejectWrites(true)
	o := New(d, testPolicy())

	_, err := o.Mint(context.Background(), holderAddr)
	ce := mustCategory(t, err, CategoryUserRejected)
	if !ce.Retryable() {
		t.Fatal("user rejection should be retryable")
	}
}

func TestMintConfirmationTimeout(t *testing.T) {
	d := fundedDevNet(300_000_000)
	d.StallConfirmations(true)
	o := New(d, testPolicy())

	_, err := o.Mint(context.Background(), holderAddr)
	mustCategory(t, err, CategoryConfirmationTimeout)

	// Exactly one approval write went out; nothing was resubmitted.
	if d.ApproveCalls() != 1 {
		t.Fatalf("approve calls = %d, want 1", d.ApproveCalls())
	}
	if d.ClaimCalls() != 0 {
		t.Fatalf("claim calls = %d, want 0", d.ClaimCalls())
	}
}

func TestMintRemotePriceInactiveOffer(t *testing.T) {
	d := fundedDevNet(300_000_000)
	d.SetCondition(ledger.ClaimCondition{Active: false})
	policy := testPolicy()
	policy.RemotePrice = true
	o := New(d, policy)

	_, err := o.Mint(context.Background(), holderAddr)
	mustCategory(t, err, CategoryNoActiveOffer)
	if d.ApproveCalls() != 0 || d.ClaimCalls() != 0 {
		t.Fatal("inactive offer must issue zero writes")
	}
}

func TestMintRemotePriceLimitExceeded(t *testing.T) {
	d := fundedDevNet(900_000_000)
	d.SetAllowance(holderAddr, claimContract, 900_000_000)
	d.SetCondition(ledger.ClaimCondition{Active: true, PricePerUnit: 100_000_000, MaxPerWallet: 1})
	policy := testPolicy()
	policy.RemotePrice = true
	o := New(d, policy)

	// First claim consumes the per-wallet limit.
	if _, err := o.Mint(context.Background(), holderAddr); err != nil {
		t.Fatalf("first mint: %v", err)
	}
	_, err := o.Mint(context.Background(), holderAddr)
	mustCategory(t, err, CategoryLimitExceeded)
}

func TestMintRemotePriceOverridesStatic(t *testing.T) {
	// Static policy says 1 GLD, remote condition says 2 GLD; the wallet
	// holds 1.5 GLD, so the remote price must cause InsufficientFunds.
	d := fundedDevNet(150_000_000)
	d.SetCondition(ledger.ClaimCondition{Active: true, PricePerUnit: 200_000_000})
	policy := testPolicy()
	policy.RemotePrice = true
	o := New(d, policy)

	_, err := o.Mint(context.Background(), holderAddr)
	mustCategory(t, err, CategoryInsufficientFunds)
}

func TestMintReinvokeAfterTimeoutRechecksAllowance(t *testing.T) {
	d := fundedDevNet(300_000_000)
	d.StallConfirmations(true)
	o := New(d, testPolicy())

	if _, err := o.Mint(context.Background(), holderAddr); err == nil {
		t.Fatal("expected timeout")
	}

	// The stalled approval never landed, so the retry approves again:
	// at most one write per invocation, re-checked via reads.
	d.StallConfirmations(false)
	if _, err := o.Mint(context.Background(), holderAddr); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if d.ApproveCalls() != 2 {
		t.Fatalf("approve calls = %d, want 2 across two invocations", d.ApproveCalls())
	}
	if d.ClaimCalls() != 1 {
		t.Fatalf("claim calls = %d, want 1", d.ClaimCalls())
	}
}
