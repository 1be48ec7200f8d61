package models

import "time"

// Room represents a tournament room users can browse and register a team for.
type Room struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Game        string    `gorm:"size:64;not null" json:"game"`     // e.g. PUBG Mobile, Free Fire
	MatchType   string    `gorm:"size:32" json:"match_type"`        // solo / duo / squad
	MapName     string    `gorm:"size:64" json:"map_name"`
	Description string    `gorm:"type:text" json:"description"`
	EntryFee    int       `gorm:"default:0" json:"entry_fee"`
	PrizePool   int       `gorm:"default:0" json:"prize_pool"`
	Slots       int       `gorm:"default:0" json:"slots"`
	StartAt     time.Time `json:"start_at"`
	Status      string    `gorm:"size:16;default:'open'" json:"status"` // open, ongoing, finished, closed
	// Room credentials are only revealed to approved registrants.
	RoomCode      string         `gorm:"size:64" json:"-"`
	ServerID      string         `gorm:"size:64" json:"-"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Registrations []Registration `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
