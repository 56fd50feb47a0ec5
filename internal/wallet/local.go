package wallet

import (
	"context"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/zeebo/blake3"

	"github.com/tokendeck/tokendeck/internal/log"
	"github.com/tokendeck/tokendeck/pkg/types"
)

// LocalProvider is an in-process wallet provider: a single secp256k1
// key generated on first connect. It exists so the console has a
// working collaborator in devnet mode; it keeps no keystore and does
// no key export.
type LocalProvider struct {
	mu      sync.Mutex
	chainID uint64
	key     *secp256k1.PrivateKey
	session *Session

	subMu sync.Mutex
	subs  map[int]func(*Session)
	nextS int
}

// NewLocal creates a local provider targeting the given chain.
func NewLocal(chainID uint64) *LocalProvider {
	return &LocalProvider{
		chainID: chainID,
		subs:    make(map[int]func(*Session)),
	}
}

// Active returns a copy of the current session, or nil.
func (p *LocalProvider) Active() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil
	}
	s := *p.session
	return &s
}

// Connect generates the key on first use and establishes the session.
func (p *LocalProvider) Connect(_ context.Context) (*Session, error) {
	p.mu.Lock()
	if p.key == nil {
		key, err := secp256k1.GeneratePrivateKey()
		if err != nil {
			p.mu.Unlock()
			return nil, err
		}
		p.key = key
	}

	addr := addressFromPubKey(p.key.PubKey().SerializeCompressed())
	p.session = &Session{Address: addr, ChainID: p.chainID, Connected: true}
	s := *p.session
	p.mu.Unlock()

	log.Wallet.Info().Str("address", addr.String()).Uint64("chain_id", p.chainID).Msg("wallet connected")
	p.notify(&s)
	return &s, nil
}

// Disconnect drops the session but keeps the key, so a reconnect yields
// the same address.
func (p *LocalProvider) Disconnect() {
	p.mu.Lock()
	p.session = nil
	p.mu.Unlock()

	log.Wallet.Info().Msg("wallet disconnected")
	p.notify(nil)
}

// Subscribe registers a session-change callback.
func (p *LocalProvider) Subscribe(fn func(*Session)) (cancel func()) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	id := p.nextS
	p.nextS++
	p.subs[id] = fn
	return func() {
		p.subMu.Lock()
		defer p.subMu.Unlock()
		delete(p.subs, id)
	}
}

func (p *LocalProvider) notify(s *Session) {
	p.subMu.Lock()
	fns := make([]func(*Session), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.subMu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

// addressFromPubKey derives an address from a compressed public key.
// Address = BLAKE3(compressed_pubkey)[:20].
func addressFromPubKey(pubKey []byte) types.Address {
	h := blake3.Sum256(pubKey)
	var addr types.Address
	copy(addr[:], h[:types.AddressSize])
	return addr
}

var _ Provider = (*LocalProvider)(nil)
