package share

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nanumsa/server/internal/apperr"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

// Store persists listings and stars. The database is the only
// concurrency arbiter for plain column updates; admin-set writes
// additionally go through a version compare-and-swap because they are
// read-modify-write cycles over the serialized set.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// DefaultStore is wired in Init() and used by the package handlers.
var DefaultStore *Store

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Bounds is an axis-aligned lat/lng rectangle given by its southwest
// and northeast corners.
type Bounds struct {
	SouthwestLat float64
	SouthwestLng float64
	NortheastLat float64
	NortheastLng float64
}

// Create inserts a listing. A submitted admin-set is kept as given;
// an empty one is seeded with the creator's tag, because a listing
// with no admin could never be mutated again under the last-admin
// rule.
func (s *Store) Create(info *ShareInfo, creatorTag int64) (int64, error) {
	set, err := ParseAdminSet(info.Admins)
	if err != nil {
		return 0, err
	}
	if len(set) == 0 {
		set = set.Add(creatorTag)
	}
	info.Admins = set.String()
	info.EditedAt = s.now()

	if err := s.db.Create(info).Error; err != nil {
		return 0, fmt.Errorf("creating share: %w", err)
	}
	return info.ID, nil
}

// ByID fetches a live listing; soft-deleted rows are invisible here
// like everywhere else.
func (s *Store) ByID(id int64) (*ShareInfo, error) {
	var info ShareInfo
	err := s.db.First(&info, "id = ? AND is_deleted = false", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up share: %w", err)
	}
	return &info, nil
}

// QueryByBounds returns live listings whose point lies inside the
// rectangle. Plain containment on both axes, not polygon math.
func (s *Store) QueryByBounds(b Bounds) ([]ShareInfo, error) {
	var infos []ShareInfo
	err := s.db.
		Where("point_lat BETWEEN ? AND ?", b.SouthwestLat, b.NortheastLat).
		Where("point_lng BETWEEN ? AND ?", b.SouthwestLng, b.NortheastLng).
		Where("is_deleted = false").
		Find(&infos).Error
	if err != nil {
		return nil, fmt.Errorf("querying shares by bounds: %w", err)
	}
	return infos, nil
}

// QueryByKeyword substring-matches listing names, optionally
// intersected with a bounds rectangle. Keywords are NFC-normalized
// first so composed and decomposed Hangul input match the same rows.
func (s *Store) QueryByKeyword(keyword string, b *Bounds) ([]ShareInfo, error) {
	keyword = norm.NFC.String(keyword)

	q := s.db.
		Where("name LIKE ?", "%"+keyword+"%").
		Where("is_deleted = false")
	if b != nil {
		q = q.
			Where("point_lat BETWEEN ? AND ?", b.SouthwestLat, b.NortheastLat).
			Where("point_lng BETWEEN ? AND ?", b.SouthwestLng, b.NortheastLng)
	}

	var infos []ShareInfo
	if err := q.Find(&infos).Error; err != nil {
		return nil, fmt.Errorf("querying shares by keyword: %w", err)
	}
	return infos, nil
}

// ListByAdminTag returns live listings the tag administers. The LIKE
// is only a prefilter; membership is decided by parsing the set, so
// tag 7 does not match "17,70". Corrupt rows are logged and skipped
// rather than failing the whole list.
func (s *Store) ListByAdminTag(tag int64) ([]ShareInfo, error) {
	var candidates []ShareInfo
	err := s.db.
		Where("admins LIKE ?", fmt.Sprintf("%%%d%%", tag)).
		Where("is_deleted = false").
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("querying shares by admin tag: %w", err)
	}

	infos := make([]ShareInfo, 0, len(candidates))
	for _, info := range candidates {
		set, err := ParseAdminSet(info.Admins)
		if err != nil {
			log.Printf("[share] share %d has corrupt admin set: %v", info.ID, err)
			continue
		}
		if set.Contains(tag) {
			infos = append(infos, info)
		}
	}
	return infos, nil
}

// ListStarredBy returns the listings the user has bookmarked.
func (s *Store) ListStarredBy(userID int64) ([]ShareInfo, error) {
	var infos []ShareInfo
	err := s.db.
		Joins("JOIN nanumsa.starred_shares ss ON ss.share_id = share_infos.id").
		Where("ss.user_id = ?", userID).
		Where("share_infos.is_deleted = false").
		Find(&infos).Error
	if err != nil {
		return nil, fmt.Errorf("querying starred shares: %w", err)
	}
	return infos, nil
}

// StarredIDs reports which of the given listings the user has
// starred.
func (s *Store) StarredIDs(userID int64, shareIDs []int64) (map[int64]bool, error) {
	if len(shareIDs) == 0 {
		return map[int64]bool{}, nil
	}

	var ids []int64
	err := s.db.Model(&StarredShare{}).
		Where("user_id = ? AND share_id IN ?", userID, shareIDs).
		Pluck("share_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("querying stars: %w", err)
	}

	starred := make(map[int64]bool, len(ids))
	for _, id := range ids {
		starred[id] = true
	}
	return starred, nil
}

// AnnotateStarred shapes listings for output. Authenticated callers
// get a starred flag per listing; anonymous callers never do.
func (s *Store) AnnotateStarred(infos []ShareInfo, userID int64, authed bool) ([]ShareOut, error) {
	out := make([]ShareOut, len(infos))
	for i, info := range infos {
		out[i] = ShareOut{ShareInfo: info}
	}
	if !authed {
		return out, nil
	}

	ids := make([]int64, len(infos))
	for i, info := range infos {
		ids[i] = info.ID
	}
	starred, err := s.StarredIDs(userID, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		flag := starred[out[i].ID]
		out[i].Starred = &flag
	}
	return out, nil
}

// UpdateFields applies a plain column update to a live listing.
func (s *Store) UpdateFields(id int64, fields map[string]any) error {
	fields["edited_at"] = s.now()
	res := s.db.Model(&ShareInfo{}).Where("id = ? AND is_deleted = false", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("updating share: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// UpdateAdmins replaces the serialized admin-set iff the row version
// is unchanged since the caller read it. A lost race surfaces as a
// conflict instead of silently dropping the other writer's change.
func (s *Store) UpdateAdmins(id, version int64, admins string) error {
	res := s.db.Model(&ShareInfo{}).
		Where("id = ? AND version = ? AND is_deleted = false", id, version).
		Updates(map[string]any{
			"admins":    admins,
			"version":   version + 1,
			"edited_at": s.now(),
		})
	if res.Error != nil {
		return fmt.Errorf("updating share admins: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrConflict
	}
	return nil
}

// SetStar stars (toBe=true) or unstars a listing for the user. Both
// directions are idempotent: a duplicate star hits the unique index
// and is treated as already done, and unstarring an absent row is a
// no-op.
func (s *Store) SetStar(userID, shareID int64, toBe bool) error {
	if toBe {
		err := s.db.Create(&StarredShare{UserID: userID, ShareID: shareID}).Error
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil
		}
		if err != nil {
			return fmt.Errorf("starring share: %w", err)
		}
		return nil
	}

	err := s.db.Where("user_id = ? AND share_id = ?", userID, shareID).Delete(&StarredShare{}).Error
	if err != nil {
		return fmt.Errorf("unstarring share: %w", err)
	}
	return nil
}

// SoftDelete flags a listing deleted; all read paths filter it out
// from then on.
func (s *Store) SoftDelete(id int64) error {
	return s.UpdateFields(id, map[string]any{"is_deleted": true})
}

// SoftDeleteMany flags each id independently. There is no cross-id
// rollback: an id that fails is logged and the rest proceed.
func (s *Store) SoftDeleteMany(ids []int64) []int64 {
	done := make([]int64, 0, len(ids))
	for _, id := range ids {
		if err := s.SoftDelete(id); err != nil {
			log.Printf("[share] bulk delete of share %d: %v", id, err)
			continue
		}
		done = append(done, id)
	}
	return done
}

// RemoveAdminEverywhere strips the tag from the admin-set of every
// listing it appears in, as part of deleting the tag's account. Each
// listing is independent; the last-admin rule does not apply because
// a deleted user cannot stay an admin. Uses the CAS write so a racing
// admin edit is not clobbered; a conflicting listing is retried once.
func (s *Store) RemoveAdminEverywhere(tag int64) error {
	infos, err := s.ListByAdminTag(tag)
	if err != nil {
		return err
	}

	for _, info := range infos {
		if err := s.removeAdminFrom(info, tag); err != nil {
			log.Printf("[share] admin cascade on share %d: %v", info.ID, err)
		}
	}
	return nil
}

func (s *Store) removeAdminFrom(info ShareInfo, tag int64) error {
	for attempt := 0; attempt < 2; attempt++ {
		set, err := ParseAdminSet(info.Admins)
		if err != nil {
			return err
		}
		err = s.UpdateAdmins(info.ID, info.Version, set.removeAny(tag).String())
		if !errors.Is(err, apperr.ErrConflict) {
			return err
		}

		fresh, err := s.ByID(info.ID)
		if err != nil {
			return err
		}
		info = *fresh
	}
	return apperr.ErrConflict
}
