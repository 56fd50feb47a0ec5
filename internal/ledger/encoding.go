package ledger

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/tokendeck/tokendeck/pkg/types"
)

// Encoder turns the two write operations into tx_submitCall parameters.
// Two interchangeable strategies exist: the structured call (named
// method and arguments, resolved by the node) and raw calldata (the
// client packs the selector and argument words itself). The RPC client
// tries the structured form first and falls back to raw calldata only
// when the node rejects the call format itself.
type Encoder interface {
	Name() string
	EncodeApprove(contract, spender types.Address, amount uint64) (interface{}, error)
	EncodeClaim(contract types.Address, claim Claim) (interface{}, error)
}

// submitCallParams is the wire shape of tx_submitCall.
type submitCallParams struct {
	Contract types.Address   `json:"contract"`
	Call     *structuredCall `json:"call,omitempty"`
	Data     string          `json:"data,omitempty"`
}

type structuredCall struct {
	Method string                 `json:"method"`
	Args   map[string]interface{} `json:"args"`
}

// structuredEncoder emits named-method calls.
type structuredEncoder struct{}

func (structuredEncoder) Name() string { return "structured" }

func (structuredEncoder) EncodeApprove(contract, spender types.Address, amount uint64) (interface{}, error) {
	return submitCallParams{
		Contract: contract,
		Call: &structuredCall{
			Method: "approve",
			Args: map[string]interface{}{
				"spender": spender.String(),
				"amount":  amount,
			},
		},
	}, nil
}

func (structuredEncoder) EncodeClaim(contract types.Address, claim Claim) (interface{}, error) {
	proof := claim.Proof
	if proof == nil {
		proof = []string{}
	}
	return submitCallParams{
		Contract: contract,
		Call: &structuredCall{
			Method: "claim",
			Args: map[string]interface{}{
				"receiver":       claim.Receiver.String(),
				"token_id":       claim.TokenID,
				"quantity":       claim.Quantity,
				"currency":       claim.Currency.String(),
				"price_per_unit": claim.PricePerUnit,
				"proof":          proof,
			},
		},
	}, nil
}

// rawEncoder packs calldata by hand: a 4-byte method selector followed
// by 32-byte argument words. Addresses are left-padded; integers sit in
// the low 8 bytes of their word, big-endian.
type rawEncoder struct{}

func (rawEncoder) Name() string { return "raw" }

// selector derives the 4-byte method selector from the canonical
// signature, matching the chain's BLAKE3-based ABI hashing.
func selector(signature string) []byte {
	h := blake3.Sum256([]byte(signature))
	return h[:4]
}

func wordFromAddress(a types.Address) []byte {
	w := make([]byte, 32)
	copy(w[32-types.AddressSize:], a[:])
	return w
}

func wordFromUint64(v uint64) []byte {
	w := make([]byte, 32)
	binary.BigEndian.PutUint64(w[24:], v)
	return w
}

func (rawEncoder) EncodeApprove(contract, spender types.Address, amount uint64) (interface{}, error) {
	data := selector("approve(address,uint256)")
	data = append(data, wordFromAddress(spender)...)
	data = append(data, wordFromUint64(amount)...)
	return submitCallParams{
		Contract: contract,
		Data:     "0x" + hex.EncodeToString(data),
	}, nil
}

func (rawEncoder) EncodeClaim(contract types.Address, claim Claim) (interface{}, error) {
	data := selector("claim(address,uint256,uint256,address,uint256,bytes32[])")
	data = append(data, wordFromAddress(claim.Receiver)...)
	data = append(data, wordFromUint64(claim.TokenID)...)
	data = append(data, wordFromUint64(claim.Quantity)...)
	data = append(data, wordFromAddress(claim.Currency)...)
	data = append(data, wordFromUint64(claim.PricePerUnit)...)
	// Proof array: length word, then one word per entry.
	data = append(data, wordFromUint64(uint64(len(claim.Proof)))...)
	for _, p := range claim.Proof {
		h, err := types.ParseHash(p)
		if err != nil {
			return nil, &Fault{Message: "invalid proof entry: " + err.Error(), Err: err}
		}
		data = append(data, h.Bytes()...)
	}
	return submitCallParams{
		Contract: contract,
		Data:     "0x" + hex.EncodeToString(data),
	}, nil
}
