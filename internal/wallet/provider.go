// Package wallet exposes the active-account projection the console
// reads. The console never owns wallet state: it reads the session
// snapshot, asks the provider to connect, and subscribes to changes.
package wallet

import (
	"context"

	"github.com/tokendeck/tokendeck/pkg/types"
)

// Session is a read projection of the wallet connection. A nil session
// is the first-class "not connected" state, not an error.
type Session struct {
	Address   types.Address
	ChainID   uint64
	Connected bool
}

// Provider is the wallet/session collaborator. Implementations must be
// safe for concurrent use: the session can change while a console
// command is suspended on a remote call.
type Provider interface {
	// Active returns the current session, or nil when disconnected.
	Active() *Session
	// Connect establishes a session in response to a user gesture.
	Connect(ctx context.Context) (*Session, error)
	// Disconnect drops the session.
	Disconnect()
	// Subscribe registers a callback invoked with the new session (or
	// nil) whenever the connection state changes. The returned func
	// cancels the subscription.
	Subscribe(fn func(*Session)) (cancel func())
}
