package search

import (
	"fmt"
	"time"

	"github.com/nanumsa/server/internal/apperr"
	"github.com/nanumsa/server/internal/share"
	"golang.org/x/text/unicode/norm"
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

// RecordKeyword pushes the keyword to the top of the user's history.
// An existing row for the same keyword is dropped first so the history
// never shows the same keyword twice, whatever its search type was.
func (s *Store) RecordKeyword(userID int64, keyword string, searchType int) error {
	keyword = norm.NFC.String(keyword)

	err := s.db.
		Where("user_id = ? AND keyword = ?", userID, keyword).
		Delete(&RecentSearchKeyword{}).Error
	if err != nil {
		return fmt.Errorf("collapsing recent keyword: %w", err)
	}

	row := RecentSearchKeyword{
		UserID:    userID,
		Keyword:   keyword,
		Type:      searchType,
		CreatedAt: s.now(),
	}
	if err := s.db.Create(&row).Error; err != nil {
		return fmt.Errorf("recording recent keyword: %w", err)
	}
	return nil
}

// RecentKeywords lists the user's history, newest first.
func (s *Store) RecentKeywords(userID int64) ([]RecentSearchKeyword, error) {
	var rows []RecentSearchKeyword
	err := s.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing recent keywords: %w", err)
	}
	return rows, nil
}

// DeleteKeyword removes one history entry. The user scoping keeps a
// caller from deleting someone else's entry by id.
func (s *Store) DeleteKeyword(userID, id int64) error {
	res := s.db.Where("id = ? AND user_id = ?", id, userID).Delete(&RecentSearchKeyword{})
	if res.Error != nil {
		return fmt.Errorf("deleting recent keyword: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// DeleteAllKeywords wipes the user's history.
func (s *Store) DeleteAllKeywords(userID int64) error {
	err := s.db.Where("user_id = ?", userID).Delete(&RecentSearchKeyword{}).Error
	if err != nil {
		return fmt.Errorf("clearing recent keywords: %w", err)
	}
	return nil
}

// PinsForKeyword matches listings by keyword and collapses them into
// map pins grouped by point.
func (s *Store) PinsForKeyword(keyword string) ([]PinGroup, error) {
	infos, err := share.DefaultStore.QueryByKeyword(keyword, nil)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, apperr.ErrNotFound
	}
	return groupByPoint(infos), nil
}

type pointKey struct {
	lat float64
	lng float64
}

// groupByPoint folds listings sharing a coordinate into one pin. A
// lone listing keeps its own name; a crowded point is labeled by its
// point name instead, since no single listing name represents it.
func groupByPoint(infos []share.ShareInfo) []PinGroup {
	order := make([]pointKey, 0, len(infos))
	groups := make(map[pointKey]*PinGroup, len(infos))

	for _, info := range infos {
		key := pointKey{lat: info.PointLat, lng: info.PointLng}
		g, ok := groups[key]
		if !ok {
			g = &PinGroup{
				Name:     info.Name,
				PointLat: info.PointLat,
				PointLng: info.PointLng,
			}
			groups[key] = g
			order = append(order, key)
		} else {
			g.Name = info.PointName
		}
		g.Addresses = append(g.Addresses, info.DoroAddress)
		g.Count++
	}

	out := make([]PinGroup, 0, len(order))
	for _, key := range order {
		out = append(out, *groups[key])
	}
	return out
}

// ResultsForKeyword returns the full matching listings, optionally
// narrowed to a viewport.
func (s *Store) ResultsForKeyword(keyword string, b *share.Bounds) ([]share.ShareInfo, error) {
	infos, err := share.DefaultStore.QueryByKeyword(keyword, b)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, apperr.ErrNotFound
	}
	return infos, nil
}
