// Package domain holds the shared domain primitives used across modules.
// Keeping identifiers as distinct types stops a user id from being passed
// where a site id is expected.
package domain

import (
	"fmt"
	"strings"
)

// UserID identifies a user. The value is opaque to this service; it is
// whatever the upstream identity provider put into the token subject.
type UserID string

// ParseUserID validates a raw user id.
func ParseUserID(s string) (UserID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("user id must not be empty")
	}
	return UserID(s), nil
}

// String returns the raw id value.
func (u UserID) String() string { return string(u) }

// IsNil reports whether the id is unset.
func (u UserID) IsNil() bool { return u == "" }

// SiteID identifies a catalogued cultural site.
type SiteID string

// ParseSiteID validates a raw site id.
func ParseSiteID(s string) (SiteID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("site id must not be empty")
	}
	return SiteID(s), nil
}

// String returns the raw id value.
func (s SiteID) String() string { return string(s) }

// IsNil reports whether the id is unset.
func (s SiteID) IsNil() bool { return s == "" }
