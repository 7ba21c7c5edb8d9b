package auth

import "time"

// Social provider kinds stored in users.social_type. Local accounts
// are 0; everything else carries a provider-specific identifier.
const (
	SocialLocal  = 0
	SocialApple  = 1
	SocialGoogle = 3
	SocialKakao  = 4
	SocialNaver  = 5
)

type User struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	Email          string    `json:"email"`
	Nickname       string    `json:"nickname"`
	Name           string    `json:"name"`
	Contacts       string    `json:"contacts"`
	Tag            int64     `gorm:"uniqueIndex" json:"tag"`
	HashedPassword string    `json:"-"`
	SocialType     int       `json:"social_type"`
	SocialUID      string    `json:"social_uid,omitempty"`
	NaverClientID  string    `json:"naver_client_id,omitempty"`
	KakaoUserID    int64     `json:"kakao_user_id,omitempty"`
	IsDeleted      bool      `gorm:"default:false" json:"is_deleted"`
	EditedAt       time.Time `json:"edited_at"`
}

// LoginToken holds the single live bearer token for a user. The
// unique index on UserID is what makes token issuance an atomic
// replace rather than a delete-then-insert.
type LoginToken struct {
	ID       int64     `gorm:"primaryKey" json:"-"`
	Token    string    `gorm:"uniqueIndex;not null" json:"-"`
	UserID   int64     `gorm:"uniqueIndex;not null" json:"-"`
	IssuedAt time.Time `json:"-"`
}

// ResetPassword is a single-use token binding an email and user to a
// pending password reset. Superseded rows for the same email are
// deleted when a new reset is requested.
type ResetPassword struct {
	ID       int64  `gorm:"primaryKey"`
	UserID   int64  `gorm:"not null"`
	Token    string `gorm:"not null"`
	Email    string `gorm:"not null"`
	EditedAt time.Time
}

func (User) TableName() string          { return "nanumsa.users" }
func (LoginToken) TableName() string    { return "nanumsa.login_tokens" }
func (ResetPassword) TableName() string { return "nanumsa.reset_passwords" }
