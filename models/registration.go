package models

import "time"

// Registration statuses. Review is manual: an admin flips the status after
// checking the payment outside this system.
const (
	RegistrationPending  = "pending"
	RegistrationApproved = "approved"
	RegistrationRejected = "rejected"
)

// Registration is a team's entry into a tournament room.
type Registration struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RoomID      uint      `gorm:"index;not null" json:"room_id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	TeamName    string    `gorm:"size:64;not null" json:"team_name"`
	CaptainName string    `gorm:"size:64" json:"captain_name"`
	WhatsApp    string    `gorm:"size:32" json:"whatsapp"`
	Players     string    `gorm:"type:text" json:"players"` // JSON array of in-game names
	Status      string    `gorm:"size:16;default:'pending'" json:"status"`
	ReviewNote  string    `gorm:"size:255" json:"review_note"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	User        User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	Room        Room      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"room"`
}
