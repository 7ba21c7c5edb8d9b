package verify

import (
	"errors"
	"fmt"
	"time"

	"github.com/nanumsa/server/internal/apperr"
	"github.com/nanumsa/server/internal/utils"
	"gorm.io/gorm"
)

type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// DefaultStore is wired in Init() and used by the package handlers.
var DefaultStore *Store

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// CreateVerifyToken issues a fresh verification token for the email.
// Any earlier row for the same email is dropped first, so only the
// newest mail's token works.
func (s *Store) CreateVerifyToken(email string) (string, error) {
	if err := s.db.Where("email = ?", email).Delete(&EmailVerify{}).Error; err != nil {
		return "", fmt.Errorf("clearing prior verify tokens: %w", err)
	}

	row := EmailVerify{
		Email:    email,
		Token:    utils.NewMailToken(),
		EditedAt: s.now(),
	}
	if err := s.db.Create(&row).Error; err != nil {
		return "", fmt.Errorf("creating verify token: %w", err)
	}
	return row.Token, nil
}

// ConsumeVerifyToken marks the email verified. It reports whether the
// token had already been used, so the handler can answer a repeated
// click on the mail link without treating it as an error.
func (s *Store) ConsumeVerifyToken(token string) (email string, already bool, err error) {
	var row EmailVerify
	lookupErr := s.db.First(&row, "token = ?", token).Error
	if errors.Is(lookupErr, gorm.ErrRecordNotFound) {
		return "", false, apperr.ErrNotFound
	}
	if lookupErr != nil {
		return "", false, fmt.Errorf("looking up verify token: %w", lookupErr)
	}

	if row.Verified {
		return row.Email, true, nil
	}

	updateErr := s.db.Model(&row).
		Updates(map[string]any{"verified": true, "edited_at": s.now()}).Error
	if updateErr != nil {
		return "", false, fmt.Errorf("marking email verified: %w", updateErr)
	}
	return row.Email, false, nil
}

// IsVerified reports whether the email has completed verification.
func (s *Store) IsVerified(email string) (bool, error) {
	var count int64
	err := s.db.Model(&EmailVerify{}).
		Where("email = ? AND verified = true", email).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking verification: %w", err)
	}
	return count > 0, nil
}
