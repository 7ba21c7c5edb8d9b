package share

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/nanumsa/server/internal/apperr"
	"github.com/nanumsa/server/internal/auth"
	"github.com/nanumsa/server/internal/httputil"
	"github.com/nanumsa/server/internal/utils"
)

type boundsRequest struct {
	SouthwestLat float64 `json:"sw_lat"`
	SouthwestLng float64 `json:"sw_lng"`
	NortheastLat float64 `json:"ne_lat"`
	NortheastLng float64 `json:"ne_lng"`
}

func (b boundsRequest) toBounds() Bounds {
	return Bounds{
		SouthwestLat: b.SouthwestLat,
		SouthwestLng: b.SouthwestLng,
		NortheastLat: b.NortheastLat,
		NortheastLng: b.NortheastLng,
	}
}

type addShareRequest struct {
	Name         string  `json:"name"`
	Admins       string  `json:"admins"`
	Contacts     string  `json:"contacts"`
	JibunAddress string  `json:"jibun_address"`
	DoroAddress  string  `json:"doro_address"`
	PointLat     float64 `json:"point_lat"`
	PointLng     float64 `json:"point_lng"`
	PointName    string  `json:"point_name"`
	Goods        string  `json:"goods"`
	Status       int     `json:"status"`
}

type starRequest struct {
	ShareID int64 `json:"share_id"`
	ToBe    bool  `json:"to_be"`
}

type selfAdminRequest struct {
	ShareID int64 `json:"share_id"`
	ToBe    bool  `json:"to_be"`
}

// complexedEntry is one instruction of a batch edit: either delete
// the listing or replace its admin-set.
type complexedEntry struct {
	ShareID int64   `json:"share_id"`
	Delete  bool    `json:"delete"`
	Admins  *string `json:"admins"`
}

type complexedResult struct {
	ShareID int64  `json:"share_id"`
	Error   string `json:"error,omitempty"`
}

// AddShareHandler registers a new listing owned by the caller.
func AddShareHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.Fail(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req addShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tag, err := auth.DefaultStore.TagForUser(userID)
	if err != nil {
		httputil.Err(w, err)
		return
	}

	info := ShareInfo{
		Name:         req.Name,
		Admins:       req.Admins,
		Contacts:     req.Contacts,
		JibunAddress: req.JibunAddress,
		DoroAddress:  req.DoroAddress,
		PointLat:     req.PointLat,
		PointLng:     req.PointLng,
		PointName:    req.PointName,
		Goods:        req.Goods,
		Status:       req.Status,
		RegisterUser: userID,
	}

	id, err := DefaultStore.Create(&info, tag)
	if err != nil {
		httputil.Err(w, err)
		return
	}
	httputil.OK(w, map[string]int64{"id": id})
}

// ListByBoundsHandler returns every live listing inside the map viewport.
// Anonymous callers get plain listings; authenticated callers also get
// a starred flag on each.
func ListByBoundsHandler(w http.ResponseWriter, r *http.Request) {
	var req boundsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	infos, err := DefaultStore.QueryByBounds(req.toBounds())
	if err != nil {
		httputil.Err(w, err)
		return
	}
	if len(infos) == 0 {
		httputil.Fail(w, http.StatusNotFound, "no values inside the area")
		return
	}

	userID, authed := utils.GetUserIDFromContext(r.Context())
	out, err := DefaultStore.AnnotateStarred(infos, userID, authed)
	if err != nil {
		httputil.Err(w, err)
		return
	}
	httputil.OK(w, out)
}

// GetShareHandler returns a single listing by id.
func GetShareHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.Fail(w, http.StatusBadRequest, "Invalid share id")
		return
	}

	info, err := DefaultStore.ByID(id)
	if err != nil {
		httputil.Err(w, err)
		return
	}

	userID, authed := utils.GetUserIDFromContext(r.Context())
	out, err := DefaultStore.AnnotateStarred([]ShareInfo{*info}, userID, authed)
	if err != nil {
		httputil.Err(w, err)
		return
	}
	httputil.OK(w, out[0])
}

// ComplexedHandler applies a batch of edits, one listing per entry.
// Every entry is gated and applied independently; one failure never
// rolls back or blocks the others, and the response reports each
// entry's outcome.
func ComplexedHandler(w http.ResponseWriter, r *http.Request) {
	var entries []complexedEntry
	if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
		httputil.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(entries) == 0 {
		httputil.Fail(w, http.StatusBadRequest, "no entries")
		return
	}

	results := make([]complexedResult, 0, len(entries))
	for _, entry := range entries {
		res := complexedResult{ShareID: entry.ShareID}
		if err := applyComplexedEntry(r, entry); err != nil {
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	httputil.OK(w, results)
}

func applyComplexedEntry(r *http.Request, entry complexedEntry) error {
	info, _, err := loadForAdmin(r, entry.ShareID)
	if err != nil {
		return err
	}

	if entry.Delete {
		return DefaultStore.SoftDelete(entry.ShareID)
	}

	if entry.Admins == nil {
		return apperr.ErrValidation
	}
	set, err := ParseAdminSet(*entry.Admins)
	if err != nil {
		return err
	}
	if len(set) == 0 {
		return apperr.ErrLastAdmin
	}
	return DefaultStore.UpdateAdmins(entry.ShareID, info.Version, set.String())
}

// ListMineHandler returns the listings the caller administers.
func ListMineHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.Fail(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	tag, err := auth.DefaultStore.TagForUser(userID)
	if err != nil {
		httputil.Err(w, err)
		return
	}

	infos, err := DefaultStore.ListByAdminTag(tag)
	if err != nil {
		httputil.Err(w, err)
		return
	}
	if len(infos) == 0 {
		httputil.Fail(w, http.StatusNotFound, "no share info")
		return
	}

	out, err := DefaultStore.AnnotateStarred(infos, userID, true)
	if err != nil {
		httputil.Err(w, err)
		return
	}
	httputil.OK(w, out)
}

// ListStarredHandler returns the listings the caller has bookmarked.
func ListStarredHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.Fail(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	infos, err := DefaultStore.ListStarredBy(userID)
	if err != nil {
		httputil.Err(w, err)
		return
	}
	if len(infos) == 0 {
		httputil.Fail(w, http.StatusNotFound, "no starred share info")
		return
	}

	out, err := DefaultStore.AnnotateStarred(infos, userID, true)
	if err != nil {
		httputil.Err(w, err)
		return
	}
	httputil.OK(w, out)
}

// SetStarHandler stars or unstars a listing for the caller. Both directions
// are idempotent.
func SetStarHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.Fail(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req starRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, err := DefaultStore.ByID(req.ShareID); err != nil {
		httputil.Err(w, err)
		return
	}
	if err := DefaultStore.SetStar(userID, req.ShareID, req.ToBe); err != nil {
		httputil.Err(w, err)
		return
	}
	httputil.OK(w, "ok")
}

// loadForAdmin fetches the listing and verifies the caller is a member
// of its admin-set. Every mutation handler goes through this gate.
func loadForAdmin(r *http.Request, id int64) (*ShareInfo, AdminSet, error) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		return nil, nil, apperr.ErrUnauthorized
	}

	info, err := DefaultStore.ByID(id)
	if err != nil {
		return nil, nil, err
	}

	tag, err := auth.DefaultStore.TagForUser(userID)
	if err != nil {
		return nil, nil, err
	}

	set, err := authorize(info.Admins, tag)
	if err != nil {
		return nil, nil, err
	}
	return info, set, nil
}

// patchField builds a PATCH handler that decodes the request into a
// fresh target, derives the column update from it, and applies it
// behind the admin gate.
func patchField(decode func(*http.Request) (map[string]any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httputil.Fail(w, http.StatusBadRequest, "Invalid share id")
			return
		}

		fields, err := decode(r)
		if err != nil {
			httputil.Fail(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if _, _, err := loadForAdmin(r, id); err != nil {
			httputil.Err(w, err)
			return
		}
		if err := DefaultStore.UpdateFields(id, fields); err != nil {
			httputil.Err(w, err)
			return
		}
		httputil.OK(w, "ok")
	}
}

func decodeOne[T any](r *http.Request, field string, pick func(T) any) (map[string]any, error) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, err
	}
	return map[string]any{field: pick(req)}, nil
}

var (
	// PatchStatusHandler flips a listing between open and closed.
	PatchStatusHandler = patchField(func(r *http.Request) (map[string]any, error) {
		return decodeOne(r, "status", func(req struct {
			Status int `json:"status"`
		}) any {
			return req.Status
		})
	})

	PatchNameHandler = patchField(func(r *http.Request) (map[string]any, error) {
		return decodeOne(r, "name", func(req struct {
			Name string `json:"name"`
		}) any {
			return req.Name
		})
	})

	PatchGoodsHandler = patchField(func(r *http.Request) (map[string]any, error) {
		return decodeOne(r, "goods", func(req struct {
			Goods string `json:"goods"`
		}) any {
			return req.Goods
		})
	})

	PatchContactsHandler = patchField(func(r *http.Request) (map[string]any, error) {
		return decodeOne(r, "contacts", func(req struct {
			Contacts string `json:"contacts"`
		}) any {
			return req.Contacts
		})
	})

	PatchPointHandler = patchField(func(r *http.Request) (map[string]any, error) {
		var req struct {
			PointLat     float64 `json:"point_lat"`
			PointLng     float64 `json:"point_lng"`
			PointName    string  `json:"point_name"`
			JibunAddress string  `json:"jibun_address"`
			DoroAddress  string  `json:"doro_address"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, err
		}
		return map[string]any{
			"point_lat":     req.PointLat,
			"point_lng":     req.PointLng,
			"point_name":    req.PointName,
			"jibun_address": req.JibunAddress,
			"doro_address":  req.DoroAddress,
		}, nil
	})
)

// PatchAdminsHandler replaces the full admin-set of a listing. The caller
// must be a current admin, the new set must parse, and it must keep at
// least one member. The write is a compare-and-swap against the row
// version the caller just read through the gate.
func PatchAdminsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.Fail(w, http.StatusBadRequest, "Invalid share id")
		return
	}

	var req struct {
		Admins string `json:"admins"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	info, _, err := loadForAdmin(r, id)
	if err != nil {
		httputil.Err(w, err)
		return
	}

	set, err := ParseAdminSet(req.Admins)
	if err != nil {
		httputil.Err(w, err)
		return
	}
	if len(set) == 0 {
		httputil.Err(w, apperr.ErrLastAdmin)
		return
	}

	if err := DefaultStore.UpdateAdmins(id, info.Version, set.String()); err != nil {
		httputil.Err(w, err)
		return
	}
	httputil.OK(w, "ok")
}

// SetSelfAdminHandler adds or removes the caller's own tag on a listing's
// admin-set. Like every other listing mutation it is gated on current
// membership: a non-admin cannot write itself in, and leaving is
// guarded by the last-admin rule.
func SetSelfAdminHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.Fail(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req selfAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	info, err := DefaultStore.ByID(req.ShareID)
	if err != nil {
		httputil.Err(w, err)
		return
	}

	tag, err := auth.DefaultStore.TagForUser(userID)
	if err != nil {
		httputil.Err(w, err)
		return
	}

	set, err := authorize(info.Admins, tag)
	if err != nil {
		httputil.Err(w, err)
		return
	}

	if req.ToBe {
		set = set.Add(tag)
	} else {
		set, err = set.Remove(tag)
		if err != nil {
			httputil.Err(w, err)
			return
		}
	}

	if err := DefaultStore.UpdateAdmins(req.ShareID, info.Version, set.String()); err != nil {
		httputil.Err(w, err)
		return
	}
	httputil.OK(w, "ok")
}

// DeleteShareHandler soft-deletes one listing, admin-gated.
func DeleteShareHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.Fail(w, http.StatusBadRequest, "Invalid share id")
		return
	}

	if _, _, err := loadForAdmin(r, id); err != nil {
		httputil.Err(w, err)
		return
	}
	if err := DefaultStore.SoftDelete(id); err != nil {
		httputil.Err(w, err)
		return
	}
	httputil.OK(w, "ok")
}

// DeleteSharesHandler soft-deletes a comma-joined id list. Each id is
// independently gated and deleted; the response reports which ids
// went through.
func DeleteSharesHandler(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(chi.URLParam(r, "ids"), ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			httputil.Fail(w, http.StatusBadRequest, "Invalid share id list")
			return
		}
		ids = append(ids, id)
	}

	allowed := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, _, err := loadForAdmin(r, id); err != nil {
			continue
		}
		allowed = append(allowed, id)
	}

	deleted := DefaultStore.SoftDeleteMany(allowed)
	if len(deleted) == 0 {
		httputil.Fail(w, http.StatusNotFound, "no deletable share info")
		return
	}
	httputil.OK(w, map[string][]int64{"deleted": deleted})
}
