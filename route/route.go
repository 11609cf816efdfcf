// Package route builds and parses the view addresses the client navigates
// between.
package route

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	Login    = "/login"
	Compose  = "/compose"
	FeedPath = "/social-feed"
)

// Navigator moves the client to another route.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a plain function to Navigator.
type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

// Feed returns the feed route scoped to name.
//
// Spaces are encoded as %20 so that "Ada Lovelace" becomes
// /social-feed?name=Ada%20Lovelace.
func Feed(name string) string {
	return FeedPath + "?name=" + EscapeComponent(name)
}

// EscapeComponent percent-encodes s for use as a single query value.
func EscapeComponent(s string) string {
	// QueryEscape has already turned every literal '+' into %2B,
	// so the only '+' left stands for a space.
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Parse splits a route into its path and the optional name parameter.
func Parse(r string) (path, name string, err error) {
	u, err := url.Parse(r)
	if err != nil {
		return "", "", fmt.Errorf("parse route %q: %w", r, err)
	}
	return u.Path, u.Query().Get("name"), nil
}
