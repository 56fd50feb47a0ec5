package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tokendeck/tokendeck/internal/log"
	"github.com/tokendeck/tokendeck/pkg/types"
)

// RPC error codes the node uses for conditions the client must
// distinguish. Everything else is opaque.
const (
	codeInvalidParams   = -32602
	codeReceiptNotFound = -32001
	codeUnknownAccount  = -32010
)

// RPCClient implements Client over JSON-RPC 2.0 HTTP.
type RPCClient struct {
	endpoint string
	http     *http.Client

	currency types.Address
	claim    types.Address

	// confirmWait bounds AwaitConfirmation; pollInterval is the
	// receipt polling cadence.
	confirmWait  time.Duration
	pollInterval time.Duration

	// encoder is the current write-encoding strategy. Swapped to the
	// raw encoder after the node rejects the structured call format.
	encoder Encoder

	log zerolog.Logger
}

// RPCOptions configure an RPCClient beyond its endpoint.
type RPCOptions struct {
	CurrencyContract types.Address
	ClaimContract    types.Address
	ConfirmationWait time.Duration
	PollInterval     time.Duration
	HTTPTimeout      time.Duration
}

// NewRPC creates a ledger client targeting the given JSON-RPC endpoint.
func NewRPC(endpoint string, opts RPCOptions) *RPCClient {
	if opts.ConfirmationWait <= 0 {
		opts.ConfirmationWait = 90 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = 10 * time.Second
	}
	return &RPCClient{
		endpoint:     endpoint,
		http:         &http.Client{Timeout: opts.HTTPTimeout},
		currency:     opts.CurrencyContract,
		claim:        opts.ClaimContract,
		confirmWait:  opts.ConfirmationWait,
		pollInterval: opts.PollInterval,
		encoder:      structuredEncoder{},
		log:          log.Ledger,
	}
}

// request is a JSON-RPC 2.0 request.
type request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      int         `json:"id"`
}

// response is a JSON-RPC 2.0 response.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      int             `json:"id"`
}

// rpcError is a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// call invokes a JSON-RPC method and unmarshals the result into the
// provided pointer. If result is nil, the response result is discarded.
// Every failure comes back as a *Fault.
func (c *RPCClient) call(ctx context.Context, method string, params, result interface{}) error {
	req := request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return &Fault{Message: fmt.Sprintf("marshal request: %v", err), Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &Fault{Message: fmt.Sprintf("build request: %v", err), Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &Fault{Message: fmt.Sprintf("http request: %v", err), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Fault{Message: fmt.Sprintf("read response: %v", err), Err: err}
	}

	var rpcResp response
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return &Fault{Message: fmt.Sprintf("decode response: %v", err), Err: err}
	}

	if rpcResp.Error != nil {
		return &Fault{Code: rpcResp.Error.Code, Message: rpcResp.Error.Message}
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return &Fault{Message: fmt.Sprintf("decode result: %v", err), Err: err}
		}
	}

	return nil
}

type amountResult struct {
	Amount uint64 `json:"amount"`
}

type txHashResult struct {
	TxHash types.Hash `json:"tx_hash"`
}

// NativeBalance reads the holder's native-coin balance.
func (c *RPCClient) NativeBalance(ctx context.Context, holder types.Address) (uint64, error) {
	if holder.IsZero() {
		return 0, nil
	}
	var res amountResult
	err := c.call(ctx, "chain_getBalance", map[string]string{"address": holder.String()}, &res)
	if err != nil {
		return 0, err
	}
	return res.Amount, nil
}

// FungibleBalance reads the holder's payment-currency balance. An unset
// holder, an unknown account, or a transient read failure all report a
// zero balance rather than an error.
func (c *RPCClient) FungibleBalance(ctx context.Context, holder types.Address) (uint64, error) {
	if holder.IsZero() {
		return 0, nil
	}
	params := map[string]string{
		"contract": c.currency.String(),
		"holder":   holder.String(),
	}
	var res amountResult
	if err := c.call(ctx, "token_getBalance", params, &res); err != nil {
		var f *Fault
		if errors.As(err, &f) && f.Code == codeUnknownAccount {
			return 0, nil
		}
		c.log.Warn().Err(err).Str("holder", holder.String()).Msg("balance read failed, reporting zero")
		return 0, nil
	}
	return res.Amount, nil
}

// SpendAuthorization reads the standing authorization holder has
// granted to spender.
func (c *RPCClient) SpendAuthorization(ctx context.Context, holder, spender types.Address) (uint64, error) {
	params := map[string]string{
		"contract": c.currency.String(),
		"holder":   holder.String(),
		"spender":  spender.String(),
	}
	var res amountResult
	if err := c.call(ctx, "token_getAllowance", params, &res); err != nil {
		var f *Fault
		if errors.As(err, &f) && f.Code == codeUnknownAccount {
			return 0, nil
		}
		return 0, err
	}
	return res.Amount, nil
}

// SetSpendAuthorization submits an approval write for the node's
// session account.
func (c *RPCClient) SetSpendAuthorization(ctx context.Context, spender types.Address, amount uint64) (SubmissionHandle, error) {
	return c.submitWrite(ctx, func(enc Encoder) (interface{}, error) {
		return enc.EncodeApprove(c.currency, spender, amount)
	})
}

// SubmitPaymentClaim submits the paid-claim write.
func (c *RPCClient) SubmitPaymentClaim(ctx context.Context, claim Claim) (SubmissionHandle, error) {
	return c.submitWrite(ctx, func(enc Encoder) (interface{}, error) {
		return enc.EncodeClaim(c.claim, claim)
	})
}

// submitWrite sends one tx_submitCall. When the node rejects the call
// format itself (it never reached execution), the write is re-encoded
// with the raw strategy and submitted once more; any other fault is
// final, because a resubmission could double the on-chain effect.
func (c *RPCClient) submitWrite(ctx context.Context, encode func(Encoder) (interface{}, error)) (SubmissionHandle, error) {
	params, err := encode(c.encoder)
	if err != nil {
		return SubmissionHandle{}, NewFault(err)
	}

	var res txHashResult
	err = c.call(ctx, "tx_submitCall", params, &res)
	if err == nil {
		return SubmissionHandle{TxHash: res.TxHash}, nil
	}
	if !isEncodingFault(err) || c.encoder.Name() == (rawEncoder{}).Name() {
		return SubmissionHandle{}, err
	}

	c.log.Debug().Err(err).Msg("structured call rejected, falling back to raw calldata")
	c.encoder = rawEncoder{}

	params, encErr := encode(c.encoder)
	if encErr != nil {
		return SubmissionHandle{}, NewFault(encErr)
	}
	res = txHashResult{}
	if err := c.call(ctx, "tx_submitCall", params, &res); err != nil {
		return SubmissionHandle{}, err
	}
	return SubmissionHandle{TxHash: res.TxHash}, nil
}

// isEncodingFault reports whether the node rejected the call format
// itself, before any execution took place.
func isEncodingFault(err error) bool {
	var f *Fault
	if !errors.As(err, &f) {
		return false
	}
	if f.Code == codeInvalidParams {
		return true
	}
	msg := strings.ToLower(f.Message)
	return strings.Contains(msg, "unknown call format") ||
		strings.Contains(msg, "unsupported call encoding")
}

type receiptResult struct {
	TxHash      types.Hash `json:"tx_hash"`
	BlockNumber uint64     `json:"block_number"`
	Status      uint64     `json:"status"`
	Reason      string     `json:"reason,omitempty"`
}

// AwaitConfirmation polls for the submission's receipt until it reaches
// a terminal state or the bounded wait elapses.
func (c *RPCClient) AwaitConfirmation(ctx context.Context, h SubmissionHandle) (*Receipt, error) {
	deadline := time.NewTimer(c.confirmWait)
	defer deadline.Stop()
	tick := time.NewTicker(c.pollInterval)
	defer tick.Stop()

	for {
		rec, err := c.pollReceipt(ctx, h)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			if rec.Status == 0 {
				reason := rec.Reason
				if reason == "" {
					reason = "unspecified"
				}
				return nil, &Fault{Message: "execution reverted: " + reason}
			}
			return rec, nil
		}

		select {
		case <-ctx.Done():
			return nil, &Fault{Message: ErrConfirmationTimedOut.Error(), Err: ErrConfirmationTimedOut}
		case <-deadline.C:
			c.log.Warn().Str("tx", h.TxHash.String()).Dur("wait", c.confirmWait).Msg("confirmation wait elapsed")
			return nil, &Fault{Message: ErrConfirmationTimedOut.Error(), Err: ErrConfirmationTimedOut}
		case <-tick.C:
		}
	}
}

// pollReceipt fetches the receipt once. A nil receipt with nil error
// means the submission is still pending.
func (c *RPCClient) pollReceipt(ctx context.Context, h SubmissionHandle) (*Receipt, error) {
	var res receiptResult
	err := c.call(ctx, "tx_getReceipt", map[string]string{"tx_hash": h.TxHash.String()}, &res)
	if err != nil {
		var f *Fault
		if errors.As(err, &f) && f.Code == codeReceiptNotFound {
			return nil, nil // still pending
		}
		return nil, err
	}
	return &Receipt{
		TxHash:      res.TxHash,
		BlockNumber: res.BlockNumber,
		Status:      res.Status,
		Reason:      res.Reason,
	}, nil
}

// OwnedTokens lists the holder's inventory on the claim contract.
func (c *RPCClient) OwnedTokens(ctx context.Context, holder types.Address) ([]OwnedToken, error) {
	params := map[string]string{
		"contract": c.claim.String(),
		"holder":   holder.String(),
	}
	var res struct {
		Tokens []OwnedToken `json:"tokens"`
	}
	if err := c.call(ctx, "token_getOwned", params, &res); err != nil {
		var f *Fault
		if errors.As(err, &f) && f.Code == codeUnknownAccount {
			return nil, nil
		}
		return nil, err
	}
	return res.Tokens, nil
}

// ClaimCondition reads the active claim condition as seen by holder.
func (c *RPCClient) ClaimCondition(ctx context.Context, holder types.Address) (*ClaimCondition, error) {
	params := map[string]string{
		"contract": c.claim.String(),
		"holder":   holder.String(),
	}
	var res ClaimCondition
	if err := c.call(ctx, "drop_getCondition", params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
