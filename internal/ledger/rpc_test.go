package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tokendeck/tokendeck/pkg/types"
)

// rpcHandler routes JSON-RPC methods to per-method handlers and records
// the raw params of every call.
type rpcHandler struct {
	handle func(method string, params json.RawMessage) (interface{}, *rpcError)
	calls  []string
}

func (h *rpcHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
		ID     int             `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.calls = append(h.calls, req.Method)

	result, rpcErr := h.handle(req.Method, req.Params)
	resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
	if rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func newTestClient(t *testing.T, h *rpcHandler) *RPCClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewRPC(srv.URL, RPCOptions{
		CurrencyContract: types.Address{0xC0},
		ClaimContract:    types.Address{0xD0},
		ConfirmationWait: 200 * time.Millisecond,
		PollInterval:     20 * time.Millisecond,
	})
}

func TestRPCFungibleBalance(t *testing.T) {
	h := &rpcHandler{handle: func(method string, params json.RawMessage) (interface{}, *rpcError) {
		if method != "token_getBalance" {
			return nil, &rpcError{Code: -32601, Message: "method not found"}
		}
		return map[string]uint64{"amount": 250}, nil
	}}
	c := newTestClient(t, h)

	bal, err := c.FungibleBalance(context.Background(), types.Address{0x01})
	if err != nil {
		t.Fatalf("FungibleBalance: %v", err)
	}
	if bal != 250 {
		t.Fatalf("balance = %d, want 250", bal)
	}

	// Zero holder short-circuits without a remote call.
	before := len(h.calls)
	bal, err = c.FungibleBalance(context.Background(), types.Address{})
	if err != nil || bal != 0 {
		t.Fatalf("zero holder: bal=%d err=%v", bal, err)
	}
	if len(h.calls) != before {
		t.Fatal("zero holder should not reach the node")
	}
}

func TestRPCFungibleBalanceUnknownAccountIsZero(t *testing.T) {
	h := &rpcHandler{handle: func(method string, params json.RawMessage) (interface{}, *rpcError) {
		return nil, &rpcError{Code: codeUnknownAccount, Message: "unknown account"}
	}}
	c := newTestClient(t, h)

	bal, err := c.FungibleBalance(context.Background(), types.Address{0x01})
	if err != nil {
		t.Fatalf("unknown account must not error: %v", err)
	}
	if bal != 0 {
		t.Fatalf("balance = %d, want 0", bal)
	}
}

func TestRPCSubmitWriteStructured(t *testing.T) {
	wantHash := types.Hash{0xAB}
	var gotParams submitCallParams
	h := &rpcHandler{handle: func(method string, params json.RawMessage) (interface{}, *rpcError) {
		if method != "tx_submitCall" {
			return nil, &rpcError{Code: -32601, Message: "method not found"}
		}
		if err := json.Unmarshal(params, &gotParams); err != nil {
			return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
		}
		return map[string]string{"tx_hash": wantHash.String()}, nil
	}}
	c := newTestClient(t, h)

	handle, err := c.SetSpendAuthorization(context.Background(), types.Address{0xD0}, 42)
	if err != nil {
		t.Fatalf("SetSpendAuthorization: %v", err)
	}
	if handle.TxHash != wantHash {
		t.Fatalf("tx hash = %s, want %s", handle.TxHash, wantHash)
	}
	if gotParams.Call == nil || gotParams.Call.Method != "approve" {
		t.Fatalf("expected structured approve call, got %+v", gotParams)
	}
	if gotParams.Data != "" {
		t.Fatal("structured call must not carry raw calldata")
	}
}

func TestRPCSubmitWriteFallsBackToRawOnEncodingFault(t *testing.T) {
	wantHash := types.Hash{0xCD}
	var rawData string
	submits := 0
	h := &rpcHandler{handle: func(method string, params json.RawMessage) (interface{}, *rpcError) {
		if method != "tx_submitCall" {
			return nil, &rpcError{Code: -32601, Message: "method not found"}
		}
		submits++
		var p submitCallParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
		}
		if p.Call != nil {
			return nil, &rpcError{Code: codeInvalidParams, Message: "unknown call format"}
		}
		rawData = p.Data
		return map[string]string{"tx_hash": wantHash.String()}, nil
	}}
	c := newTestClient(t, h)

	handle, err := c.SetSpendAuthorization(context.Background(), types.Address{0xD0}, 42)
	if err != nil {
		t.Fatalf("fallback submit: %v", err)
	}
	if handle.TxHash != wantHash {
		t.Fatalf("tx hash = %s, want %s", handle.TxHash, wantHash)
	}
	if submits != 2 {
		t.Fatalf("submits = %d, want 2 (structured then raw)", submits)
	}
	if !strings.HasPrefix(rawData, "0x") {
		t.Fatalf("raw calldata = %q", rawData)
	}
	// selector (4) + spender word (32) + amount word (32) = 68 bytes.
	if len(rawData) != 2+68*2 {
		t.Fatalf("raw calldata length = %d", len(rawData))
	}

	// The client sticks with raw encoding afterwards: one submit only.
	if _, err := c.SetSpendAuthorization(context.Background(), types.Address{0xD0}, 7); err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if submits != 3 {
		t.Fatalf("submits = %d, want 3", submits)
	}
}

func TestRPCSubmitWriteExecutionFaultIsFinal(t *testing.T) {
	submits := 0
	h := &rpcHandler{handle: func(method string, params json.RawMessage) (interface{}, *rpcError) {
		submits++
		return nil, &rpcError{Code: -32000, Message: "insufficient funds for gas"}
	}}
	c := newTestClient(t, h)

	_, err := c.SetSpendAuthorization(context.Background(), types.Address{0xD0}, 42)
	if err == nil {
		t.Fatal("expected fault")
	}
	if submits != 1 {
		t.Fatalf("submits = %d, want 1 — non-encoding faults must never resubmit", submits)
	}
}

func TestRPCAwaitConfirmation(t *testing.T) {
	hash := types.Hash{0x11}
	polls := 0
	h := &rpcHandler{handle: func(method string, params json.RawMessage) (interface{}, *rpcError) {
		if method != "tx_getReceipt" {
			return nil, &rpcError{Code: -32601, Message: "method not found"}
		}
		polls++
		if polls < 3 {
			return nil, &rpcError{Code: codeReceiptNotFound, Message: "receipt not found"}
		}
		return map[string]interface{}{
			"tx_hash": hash.String(), "block_number": 99, "status": 1,
		}, nil
	}}
	c := newTestClient(t, h)

	rec, err := c.AwaitConfirmation(context.Background(), SubmissionHandle{TxHash: hash})
	if err != nil {
		t.Fatalf("AwaitConfirmation: %v", err)
	}
	if rec.BlockNumber != 99 || rec.TxHash != hash {
		t.Fatalf("receipt = %+v", rec)
	}
}

func TestRPCAwaitConfirmationTimesOut(t *testing.T) {
	h := &rpcHandler{handle: func(method string, params json.RawMessage) (interface{}, *rpcError) {
		return nil, &rpcError{Code: codeReceiptNotFound, Message: "receipt not found"}
	}}
	c := newTestClient(t, h)

	_, err := c.AwaitConfirmation(context.Background(), SubmissionHandle{TxHash: types.Hash{0x22}})
	if !errors.Is(err, ErrConfirmationTimedOut) {
		t.Fatalf("err = %v, want ErrConfirmationTimedOut", err)
	}
}

func TestRPCAwaitConfirmationRevertIsFault(t *testing.T) {
	h := &rpcHandler{handle: func(method string, params json.RawMessage) (interface{}, *rpcError) {
		return map[string]interface{}{
			"tx_hash": types.Hash{0x33}.String(), "block_number": 7, "status": 0,
			"reason": "DropClaim: no active condition",
		}, nil
	}}
	c := newTestClient(t, h)

	_, err := c.AwaitConfirmation(context.Background(), SubmissionHandle{TxHash: types.Hash{0x33}})
	if err == nil {
		t.Fatal("expected fault for reverted execution")
	}
	if !strings.Contains(err.Error(), "no active condition") {
		t.Fatalf("revert reason not preserved: %v", err)
	}
}

func TestRawEncoderClaimLayout(t *testing.T) {
	enc := rawEncoder{}
	params, err := enc.EncodeClaim(types.Address{0xD0}, Claim{
		Receiver:     types.Address{0x01},
		TokenID:      3,
		Quantity:     2,
		Currency:     types.Address{0xC0},
		PricePerUnit: 10,
	})
	if err != nil {
		t.Fatalf("EncodeClaim: %v", err)
	}
	p := params.(submitCallParams)
	// selector (4) + 6 words (receiver, token, qty, currency, price,
	// proof length) = 196 bytes.
	if len(p.Data) != 2+196*2 {
		t.Fatalf("calldata length = %d", len(p.Data))
	}
}
