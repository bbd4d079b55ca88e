// Package leaderboard ranks users by visits within the current calendar month.
package leaderboard

import (
	"time"
)

// Entry is one ranked row. Only display data leaves the service; raw user ids
// stay internal because the leaderboard endpoint is public.
type Entry struct {
	Rank              int       `json:"rank"`
	DisplayName       string    `json:"displayName"`
	MonthlyVisitCount int       `json:"monthlyVisitCount"`
	LatestVisitDate   time.Time `json:"latestVisitDate"`
	JoinDate          time.Time `json:"joinDate"`
}

// Board is the full leaderboard response.
type Board struct {
	Month   string  `json:"month"`
	Entries []Entry `json:"entries"`
}
