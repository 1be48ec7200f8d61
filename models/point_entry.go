package models

import (
	"time"

	"gorm.io/gorm"
)

// PointEntry is one team's row in a room's point table. TotalPoints is a
// derived column: it is recomputed from its components on every save and is
// never trusted from client input.
type PointEntry struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	RoomID        uint      `gorm:"index;not null" json:"room_id"`
	TeamName      string    `gorm:"size:64;not null" json:"team_name"`
	MatchesPlayed int       `gorm:"default:0" json:"matches_played"`
	RankPoints    int       `gorm:"default:0" json:"rank_points"`
	KillPoints    int       `gorm:"default:0" json:"kill_points"`
	TotalPoints   int       `gorm:"default:0" json:"total_points"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BeforeSave recomputes the total so edits to either component take effect
// immediately.
func (p *PointEntry) BeforeSave(tx *gorm.DB) error {
	p.TotalPoints = p.RankPoints + p.KillPoints
	return nil
}
