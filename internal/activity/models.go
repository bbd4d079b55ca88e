// Package activity keeps an append-only feed of notable user events. It is
// best-effort by design: losing an event must never affect a check-in.
package activity

import (
	"time"

	id "culturetrail/pkg/domain"
)

// Kind labels what happened.
type Kind string

const (
	KindCheckin Kind = "checkin"
	KindBadge   Kind = "badge"
)

// Event is one feed entry.
type Event struct {
	UserID    id.UserID `json:"userId"`
	SiteID    id.SiteID `json:"siteId,omitempty"`
	SiteName  string    `json:"siteName,omitempty"`
	Kind      Kind      `json:"kind"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
