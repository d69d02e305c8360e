package models

import "time"

// DailyUsage is the token total of one account for one UTC day.
type DailyUsage struct {
	AccountID  string    `json:"-"`
	Day        string    `json:"day"` // YYYY-MM-DD, UTC
	TokenTotal int64     `json:"tokenTotal"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
