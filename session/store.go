// Package session holds the client's display identity.
//
// The identity is a single display name kept on the client only. Reading it
// never fails: when nothing is stored the default "User" is returned.
// Sign-out clears the stored name and sends the client to the login route.
package session

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/puyokura/cmppfeed/model"
	"github.com/puyokura/cmppfeed/route"
)

// Key is the fixed name the identity is stored under.
const Key = "displayName"

// Store is the narrow view UI code gets of the identity.
type Store interface {
	// Read returns the stored display name, or model.DefaultIdentity.
	Read(ctx context.Context) string
	// Clear removes the stored name. Clearing an empty store is a no-op.
	Clear(ctx context.Context) error
}

// Writer stores a new display name. Only the login flow needs it.
type Writer interface {
	Write(ctx context.Context, name string) error
}

// ReadWriter is implemented by every concrete store in this package.
type ReadWriter interface {
	Store
	Writer
}

// Badge is the upper-cased first character of name.
func Badge(name string) string {
	if name == "" {
		name = model.DefaultIdentity
	}
	r, _ := utf8.DecodeRuneInString(name)
	return strings.ToUpper(string(r))
}

// SignOut clears the identity, then navigates to the login route.
// The client leaves even if clearing failed; the error is still returned.
func SignOut(ctx context.Context, s Store, nav route.Navigator) error {
	err := s.Clear(ctx)
	nav.Navigate(route.Login)
	return err
}

func orDefault(name string) string {
	if name == "" {
		return model.DefaultIdentity
	}
	return name
}
