package share

import "time"

// ShareInfo is a geotagged listing. The admins column is the
// serialized admin-set; version backs the compare-and-swap on
// admin-set writes.
type ShareInfo struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Name         string    `json:"name"`
	Admins       string    `json:"admins"`
	Contacts     string    `json:"contacts"`
	JibunAddress string    `json:"jibun_address"`
	DoroAddress  string    `json:"doro_address"`
	PointLat     float64   `json:"point_lat"`
	PointLng     float64   `json:"point_lng"`
	PointName    string    `json:"point_name"`
	Goods        string    `json:"goods"`
	Status       int       `gorm:"default:0" json:"status"`
	RegisterUser int64     `json:"-"`
	Version      int64     `gorm:"default:0" json:"-"`
	IsDeleted    bool      `gorm:"default:false" json:"-"`
	EditedAt     time.Time `json:"-"`
}

// StarredShare is a user's bookmark on a listing. The composite
// unique index keeps it to at most one row per (user, listing).
type StarredShare struct {
	ID      int64 `gorm:"primaryKey"`
	UserID  int64 `gorm:"uniqueIndex:idx_starred_user_share"`
	ShareID int64 `gorm:"uniqueIndex:idx_starred_user_share"`
}

func (ShareInfo) TableName() string    { return "nanumsa.share_infos" }
func (StarredShare) TableName() string { return "nanumsa.starred_shares" }

// ShareOut is the response shape for listing reads. Starred is only
// populated for authenticated callers; anonymous reads omit it.
type ShareOut struct {
	ShareInfo
	Starred *bool `json:"starred,omitempty"`
}
