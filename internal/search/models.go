package search

import "time"

// RecentSearchKeyword is one entry of a user's recent-search history.
// Type distinguishes what kind of search produced the entry (place
// keyword vs address lookup); the client renders them differently.
// A user never holds two rows with the same keyword; re-searching
// refreshes the existing entry to the top.
type RecentSearchKeyword struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"index" json:"-"`
	Keyword   string    `json:"keyword"`
	Type      int       `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

func (RecentSearchKeyword) TableName() string { return "nanumsa.recent_search_keywords" }

// PinGroup is a map-pin summary for keyword search. Listings sharing
// the same point collapse into one pin carrying the match count.
type PinGroup struct {
	Name      string   `json:"name"`
	Addresses []string `json:"addresses"`
	PointLat  float64  `json:"point_lat"`
	PointLng  float64  `json:"point_lng"`
	Count     int      `json:"count"`
}
