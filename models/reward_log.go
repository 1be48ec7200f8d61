package models

import "time"

// RewardLog records each successful ad-watch grant. TotalExp on the user must
// equal the sum of exp_awarded across their rows; the rows are the audit
// trail for that identity.
type RewardLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"index;not null" json:"user_id"`
	ExpAwarded int       `json:"exp_awarded"`
	LeveledUp  bool      `json:"leveled_up"`
	LevelAfter int       `json:"level_after"`
	WatchedMS  int64     `json:"watched_ms"`
	RewardDate string    `gorm:"size:10;index" json:"reward_date"`
	CreatedAt  time.Time `json:"created_at"`
}
