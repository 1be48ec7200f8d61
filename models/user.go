package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/arkapradana/arenahub/reward"
)

// User represents a community member. Passwords are stored as bcrypt hashes
// only. The level/exp columns are mutated exclusively by the reward engine's
// grant path (and by admin tools).
type User struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Username         string         `gorm:"size:64;not null" json:"username"`
	Email            string         `gorm:"size:255" json:"email"`
	PasswordHash     string         `gorm:"size:255" json:"-"`
	Provider         string         `gorm:"size:32" json:"provider"`
	ProviderID       string         `gorm:"size:255" json:"provider_id"`
	RegisterIP       string         `gorm:"size:45" json:"register_ip"`
	AvatarURL        string         `gorm:"size:512" json:"avatar_url"`
	GameID           string         `gorm:"size:64" json:"game_id"` // in-game nickname shown on rosters
	Level            int            `gorm:"default:1" json:"level"`
	Exp              int            `gorm:"default:0" json:"exp"`
	TotalExp         int            `gorm:"default:0" json:"total_exp"`
	DailyRewardCount int            `gorm:"default:0" json:"daily_reward_count"`
	LastRewardDate   string         `gorm:"size:10" json:"last_reward_date"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
	Registrations    []Registration `json:"-"`
}

// Progress extracts the reward-relevant subset of the record.
func (u *User) Progress() reward.Progress {
	return reward.Progress{
		Level:            u.Level,
		Exp:              u.Exp,
		TotalExp:         u.TotalExp,
		DailyRewardCount: u.DailyRewardCount,
		LastRewardDate:   u.LastRewardDate,
	}
}

// BeforeCreate hook ensures timestamps and the starting level are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.Level < 1 {
		u.Level = 1
	}
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
