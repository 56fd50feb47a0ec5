package ledger

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/tokendeck/tokendeck/pkg/types"
)

var (
	_ Client = (*RPCClient)(nil)
	_ Client = (*DevNet)(nil)
)

type allowanceKey struct {
	holder  types.Address
	spender types.Address
}

type pendingKind int

const (
	pendingApprove pendingKind = iota
	pendingClaim
)

type pendingTx struct {
	kind    pendingKind
	spender types.Address
	amount  uint64
	claim   Claim
}

// DevNet is an in-memory ledger used by the --devnet demo mode and by
// tests. Submitted writes sit pending until awaited; AwaitConfirmation
// "mines" them, applying their effect and producing a receipt with a
// deterministic BLAKE3 transaction hash.
type DevNet struct {
	mu sync.Mutex

	// Signer is the account the node signs writes with. Set on
	// connect; the zero address rejects all writes.
	signer types.Address

	native     map[types.Address]uint64
	balances   map[types.Address]uint64
	allowances map[allowanceKey]uint64
	owned      map[types.Address][]OwnedToken
	claimed    map[types.Address]uint64

	condition ClaimCondition
	tokenName string

	pending map[types.Hash]*pendingTx
	seq     uint64

	// Failure injection for tests and demo walkthroughs.
	rejectWrites bool // every write fails as declined by the signer
	stallAwaits  bool // submissions never confirm

	approveCalls int
	claimCalls   int
}

// NewDevNet creates an empty devnet ledger with an active, unlimited
// claim condition.
func NewDevNet() *DevNet {
	return &DevNet{
		native:     make(map[types.Address]uint64),
		balances:   make(map[types.Address]uint64),
		allowances: make(map[allowanceKey]uint64),
		owned:      make(map[types.Address][]OwnedToken),
		claimed:    make(map[types.Address]uint64),
		pending:    make(map[types.Hash]*pendingTx),
		condition:  ClaimCondition{Active: true},
		tokenName:  "Devnet Drop",
	}
}

// SetSigner sets the account that signs writes.
func (d *DevNet) SetSigner(addr types.Address) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.signer = addr
}

// Fund credits native and currency balances for an account.
func (d *DevNet) Fund(addr types.Address, native, currency uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.native[addr] += native
	d.balances[addr] += currency
}

// SetAllowance seeds a standing authorization directly.
func (d *DevNet) SetAllowance(holder, spender types.Address, amount uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.allowances[allowanceKey{holder, spender}] = amount
}

// SetCondition replaces the claim condition.
func (d *DevNet) SetCondition(cond ClaimCondition) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.condition = cond
}

// RejectWrites makes every subsequent write fail as declined by the
// signer.
func (d *DevNet) RejectWrites(reject bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rejectWrites = reject
}

// StallConfirmations makes submissions never confirm, so awaits run
// into the caller's bounded wait.
func (d *DevNet) StallConfirmations(stall bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stallAwaits = stall
}

// ApproveCalls reports how many authorization writes were submitted.
func (d *DevNet) ApproveCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.approveCalls
}

// ClaimCalls reports how many claim writes were submitted.
func (d *DevNet) ClaimCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.claimCalls
}

// nextHash derives a deterministic tx hash from the submission counter.
func (d *DevNet) nextHash() types.Hash {
	d.seq++
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], d.seq)
	return types.Hash(blake3.Sum256(buf[:]))
}

// NativeBalance reads the holder's native-coin balance.
func (d *DevNet) NativeBalance(_ context.Context, holder types.Address) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.native[holder], nil
}

// FungibleBalance reads the holder's currency balance. Unknown accounts
// have a zero balance, never an error.
func (d *DevNet) FungibleBalance(_ context.Context, holder types.Address) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.balances[holder], nil
}

// SpendAuthorization reads the holder's standing authorization.
func (d *DevNet) SpendAuthorization(_ context.Context, holder, spender types.Address) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.allowances[allowanceKey{holder, spender}], nil
}

// SetSpendAuthorization submits an approval write.
func (d *DevNet) SetSpendAuthorization(_ context.Context, spender types.Address, amount uint64) (SubmissionHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.approveCalls++
	if err := d.writeGate(); err != nil {
		return SubmissionHandle{}, err
	}

	h := d.nextHash()
	d.pending[h] = &pendingTx{kind: pendingApprove, spender: spender, amount: amount}
	return SubmissionHandle{TxHash: h}, nil
}

// SubmitPaymentClaim submits the paid-claim write.
func (d *DevNet) SubmitPaymentClaim(_ context.Context, claim Claim) (SubmissionHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.claimCalls++
	if err := d.writeGate(); err != nil {
		return SubmissionHandle{}, err
	}

	h := d.nextHash()
	d.pending[h] = &pendingTx{kind: pendingClaim, claim: claim}
	return SubmissionHandle{TxHash: h}, nil
}

// writeGate rejects writes when configured to, or when no signer is set.
func (d *DevNet) writeGate() error {
	if d.rejectWrites {
		return &Fault{Message: "user rejected the request"}
	}
	if d.signer.IsZero() {
		return &Fault{Message: "no signer account available"}
	}
	return nil
}

// AwaitConfirmation mines the pending submission, applying its effect.
func (d *DevNet) AwaitConfirmation(ctx context.Context, h SubmissionHandle) (*Receipt, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stallAwaits {
		return nil, &Fault{Message: ErrConfirmationTimedOut.Error(), Err: ErrConfirmationTimedOut}
	}
	if err := ctx.Err(); err != nil {
		return nil, &Fault{Message: ErrConfirmationTimedOut.Error(), Err: ErrConfirmationTimedOut}
	}

	tx, ok := d.pending[h.TxHash]
	if !ok {
		return nil, &Fault{Message: fmt.Sprintf("unknown submission %s", h.TxHash)}
	}
	delete(d.pending, h.TxHash)

	switch tx.kind {
	case pendingApprove:
		d.allowances[allowanceKey{d.signer, tx.spender}] = tx.amount
	case pendingClaim:
		if reason := d.applyClaim(tx.claim); reason != "" {
			return nil, &Fault{Message: "execution reverted: " + reason}
		}
	}

	return &Receipt{
		TxHash:      h.TxHash,
		BlockNumber: d.seq,
		Status:      1,
	}, nil
}

// applyClaim executes the claim against devnet state, returning a
// revert reason on failure.
func (d *DevNet) applyClaim(claim Claim) string {
	if !d.condition.Active {
		return "DropClaim: no active condition"
	}
	if d.condition.MaxPerWallet > 0 &&
		d.claimed[claim.Receiver]+claim.Quantity > d.condition.MaxPerWallet {
		return "DropClaim: quantity limit exceeded"
	}

	cost := claim.PricePerUnit * claim.Quantity
	holder := claim.Receiver
	if d.balances[holder] < cost {
		return "transfer amount exceeds balance"
	}

	// The claim contract spends the holder's authorized currency.
	spent := false
	for k, allowed := range d.allowances {
		if k.holder != holder {
			continue
		}
		if allowed < cost {
			return "insufficient allowance"
		}
		d.allowances[k] = allowed - cost
		spent = true
		break
	}
	if !spent {
		return "insufficient allowance"
	}

	d.balances[holder] -= cost
	d.claimed[holder] += claim.Quantity
	d.owned[holder] = append(d.owned[holder], OwnedToken{
		TokenID:  claim.TokenID,
		Name:     d.tokenName,
		Quantity: claim.Quantity,
	})
	return ""
}

// OwnedTokens lists the holder's claimed inventory.
func (d *DevNet) OwnedTokens(_ context.Context, holder types.Address) ([]OwnedToken, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]OwnedToken, len(d.owned[holder]))
	copy(out, d.owned[holder])
	return out, nil
}

// ClaimCondition reads the condition as seen by holder.
func (d *DevNet) ClaimCondition(_ context.Context, holder types.Address) (*ClaimCondition, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cond := d.condition
	cond.WalletClaimed = d.claimed[holder]
	return &cond, nil
}
