package verify

import "time"

// EmailVerify holds a pending or completed email verification. Only
// one row per email is live at a time; requesting a new token
// supersedes the old one.
type EmailVerify struct {
	ID       int64     `gorm:"primaryKey"`
	Email    string    `gorm:"index"`
	Token    string    `gorm:"uniqueIndex"`
	Verified bool      `gorm:"default:false"`
	EditedAt time.Time
}

func (EmailVerify) TableName() string { return "nanumsa.email_verifies" }
