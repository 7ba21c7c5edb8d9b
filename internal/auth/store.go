package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/nanumsa/server/internal/apperr"
	"github.com/nanumsa/server/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the credential store and token manager over the shared
// database handle. The clock is injected so tests can pin time and so
// no timestamp is ever memoized at startup.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// DefaultStore is wired in Init() and used by the package handlers.
var DefaultStore *Store

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// IssueToken generates a fresh bearer token for the user and installs
// it with a single upsert keyed on user_id. Any previously issued
// token is replaced atomically, so two concurrent logins cannot leave
// two live tokens behind.
func (s *Store) IssueToken(userID int64) (string, error) {
	token := LoginToken{
		Token:    utils.NewLoginToken(),
		UserID:   userID,
		IssuedAt: s.now(),
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "issued_at"}),
	}).Create(&token).Error
	if err != nil {
		return "", fmt.Errorf("issuing token: %w", err)
	}
	return token.Token, nil
}

// FindUserIDByToken resolves a bearer token to its user id. An absent
// token is Unauthorized; optional-auth callers treat that as anonymous.
func (s *Store) FindUserIDByToken(token string) (int64, error) {
	var row LoginToken
	err := s.db.First(&row, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperr.ErrUnauthorized
	}
	if err != nil {
		return 0, fmt.Errorf("looking up token: %w", err)
	}
	return row.UserID, nil
}

// RevokeToken deletes the token row. An unknown token yields
// ErrNotFound so logout can report it had nothing to revoke.
func (s *Store) RevokeToken(token string) error {
	res := s.db.Where("token = ?", token).Delete(&LoginToken{})
	if res.Error != nil {
		return fmt.Errorf("revoking token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// RevokeTokenForUser drops whatever token the user currently holds.
func (s *Store) RevokeTokenForUser(userID int64) error {
	return s.db.Where("user_id = ?", userID).Delete(&LoginToken{}).Error
}

// FindByCredentials matches a local account by email and password.
// The password check is verify-by-comparison against the stored
// bcrypt hash.
func (s *Store) FindByCredentials(email, password string) (*User, error) {
	var user User
	err := s.db.First(&user, "email = ? AND social_type = ? AND is_deleted = false", email, SocialLocal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user by email: %w", err)
	}
	if CheckPassword(user.HashedPassword, password) != nil {
		return nil, apperr.ErrNotFound
	}
	return &user, nil
}

// SocialIdentity carries the provider-specific key used to locate a
// social account. Which field matters depends on the provider kind.
type SocialIdentity struct {
	SocialType    int
	Email         string
	SocialUID     string
	NaverClientID string
	KakaoUserID   int64
}

// FindBySocialIdentity locates a non-deleted social account by its
// provider-specific identifier.
func (s *Store) FindBySocialIdentity(id SocialIdentity) (*User, error) {
	q := s.db.Where("social_type = ? AND is_deleted = false", id.SocialType)

	switch id.SocialType {
	case SocialApple, SocialGoogle:
		q = q.Where("social_uid = ?", id.SocialUID)
	case SocialKakao:
		q = q.Where("kakao_user_id = ?", id.KakaoUserID)
	case SocialNaver:
		q = q.Where("naver_client_id = ?", id.NaverClientID)
	default:
		q = q.Where("email = ?", id.Email)
	}

	var user User
	err := q.First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up social user: %w", err)
	}
	return &user, nil
}

// EmailTaken reports whether any account, including soft-deleted
// ones, already holds the email. Tags and emails are never recycled.
func (s *Store) EmailTaken(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("checking email: %w", err)
	}
	return count > 0, nil
}

// CreateUser inserts the user with a freshly drawn tag. Tags come
// from a dedicated sequence so they are assigned once and never
// reused, even across account deletions.
func (s *Store) CreateUser(user *User) error {
	var tag int64
	if err := s.db.Raw("SELECT nextval('nanumsa.user_tag_seq')").Scan(&tag).Error; err != nil {
		return fmt.Errorf("allocating user tag: %w", err)
	}
	user.Tag = tag
	user.EditedAt = s.now()

	if err := s.db.Create(user).Error; err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

func (s *Store) FindUserByID(id int64) (*User, error) {
	var user User
	err := s.db.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	return &user, nil
}

// TagForUser resolves a user id to its admin-membership tag.
func (s *Store) TagForUser(userID int64) (int64, error) {
	user, err := s.FindUserByID(userID)
	if err != nil {
		return 0, err
	}
	return user.Tag, nil
}

// FindUsersByTags returns all non-deleted users whose tag appears in
// the given set.
func (s *Store) FindUsersByTags(tags []int64) ([]User, error) {
	var users []User
	err := s.db.Raw(
		`SELECT * FROM nanumsa.users WHERE tag = ANY(?) AND is_deleted = false`,
		pq.Array(tags),
	).Scan(&users).Error
	if err != nil {
		return nil, fmt.Errorf("looking up users by tags: %w", err)
	}
	return users, nil
}

func (s *Store) UpdateNickname(userID int64, nickname string) error {
	return s.updateUserColumn(userID, "nickname", nickname)
}

func (s *Store) UpdateContacts(userID int64, contacts string) error {
	return s.updateUserColumn(userID, "contacts", contacts)
}

func (s *Store) UpdatePassword(userID int64, password string) error {
	hashed, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.updateUserColumn(userID, "hashed_password", hashed)
}

func (s *Store) updateUserColumn(userID int64, column string, value any) error {
	err := s.db.Model(&User{}).Where("id = ?", userID).
		Updates(map[string]any{column: value, "edited_at": s.now()}).Error
	if err != nil {
		return fmt.Errorf("updating user %s: %w", column, err)
	}
	return nil
}

// VerifyPassword checks the user's current password by comparison.
func (s *Store) VerifyPassword(userID int64, password string) error {
	user, err := s.FindUserByID(userID)
	if err != nil {
		return err
	}
	if CheckPassword(user.HashedPassword, password) != nil {
		return apperr.ErrUnauthorized
	}
	return nil
}

// SoftDeleteUser flags the account deleted and revokes its session
// token. The admin-set cascade across listings is driven by the
// handler so each listing's failure stays independent.
func (s *Store) SoftDeleteUser(userID int64) error {
	err := s.db.Model(&User{}).Where("id = ?", userID).
		Updates(map[string]any{"is_deleted": true, "edited_at": s.now()}).Error
	if err != nil {
		return fmt.Errorf("soft-deleting user: %w", err)
	}
	return s.RevokeTokenForUser(userID)
}

// CreateResetToken replaces any pending reset for the email with a
// fresh single-use token.
func (s *Store) CreateResetToken(user *User) (string, error) {
	if err := s.db.Where("email = ?", user.Email).Delete(&ResetPassword{}).Error; err != nil {
		return "", fmt.Errorf("clearing prior reset tokens: %w", err)
	}

	row := ResetPassword{
		UserID:   user.ID,
		Token:    utils.NewMailToken(),
		Email:    user.Email,
		EditedAt: s.now(),
	}
	if err := s.db.Create(&row).Error; err != nil {
		return "", fmt.Errorf("creating reset token: %w", err)
	}
	return row.Token, nil
}

// ConsumeResetToken validates a reset token, updates the password of
// the bound user, and destroys the token so it cannot be replayed.
func (s *Store) ConsumeResetToken(token, newPassword string) error {
	var row ResetPassword
	err := s.db.First(&row, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("looking up reset token: %w", err)
	}

	if err := s.UpdatePassword(row.UserID, newPassword); err != nil {
		return err
	}
	return s.db.Delete(&row).Error
}

// FindUserByEmail matches any account kind by email, used for the
// reset-password mail flow.
func (s *Store) FindUserByEmail(email string) (*User, error) {
	var user User
	err := s.db.First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user by email: %w", err)
	}
	return &user, nil
}
