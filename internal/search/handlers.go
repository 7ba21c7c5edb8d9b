package search

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/nanumsa/server/internal/httputil"
	"github.com/nanumsa/server/internal/share"
	"github.com/nanumsa/server/internal/utils"
)

type recordKeywordRequest struct {
	Keyword string `json:"keyword"`
	Type    int    `json:"type"`
}

// RecordKeywordHandler saves a search keyword to the caller's history and
// returns the refreshed list so the client can render it in one round
// trip.
func RecordKeywordHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.Fail(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req recordKeywordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Keyword) == "" {
		httputil.Fail(w, http.StatusBadRequest, "keyword is required")
		return
	}

	if err := DefaultStore.RecordKeyword(userID, req.Keyword, req.Type); err != nil {
		httputil.Err(w, err)
		return
	}

	rows, err := DefaultStore.RecentKeywords(userID)
	if err != nil {
		httputil.Err(w, err)
		return
	}
	httputil.OK(w, rows)
}

// RecentKeywordsHandler lists the caller's search history, newest first.
func RecentKeywordsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.Fail(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	rows, err := DefaultStore.RecentKeywords(userID)
	if err != nil {
		httputil.Err(w, err)
		return
	}
	httputil.OK(w, rows)
}

// DeleteKeywordHandler removes one entry from the caller's history.
func DeleteKeywordHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.Fail(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.Fail(w, http.StatusBadRequest, "Invalid keyword id")
		return
	}

	if err := DefaultStore.DeleteKeyword(userID, id); err != nil {
		httputil.Err(w, err)
		return
	}
	httputil.OK(w, "ok")
}

// DeleteAllKeywordsHandler wipes the caller's history.
func DeleteAllKeywordsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.Fail(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if err := DefaultStore.DeleteAllKeywords(userID); err != nil {
		httputil.Err(w, err)
		return
	}
	httputil.OK(w, "ok")
}

// KeywordPinsHandler returns map-pin summaries for a keyword, with listings
// at the same point collapsed into one pin.
func KeywordPinsHandler(w http.ResponseWriter, r *http.Request) {
	keyword := chi.URLParam(r, "keyword")
	if strings.TrimSpace(keyword) == "" {
		httputil.Fail(w, http.StatusBadRequest, "keyword is required")
		return
	}

	pins, err := DefaultStore.PinsForKeyword(keyword)
	if err != nil {
		httputil.Err(w, err)
		return
	}
	httputil.OK(w, pins)
}

// KeywordResultsHandler returns full listings matching a keyword. The
// viewport is optional query params; the starred flag rides along for
// authenticated callers.
func KeywordResultsHandler(w http.ResponseWriter, r *http.Request) {
	keyword := chi.URLParam(r, "keyword")
	if strings.TrimSpace(keyword) == "" {
		httputil.Fail(w, http.StatusBadRequest, "keyword is required")
		return
	}

	bounds, err := boundsFromQuery(r)
	if err != nil {
		httputil.Fail(w, http.StatusBadRequest, "Invalid bounds")
		return
	}

	infos, err := DefaultStore.ResultsForKeyword(keyword, bounds)
	if err != nil {
		httputil.Err(w, err)
		return
	}

	userID, authed := utils.GetUserIDFromContext(r.Context())
	out, err := share.DefaultStore.AnnotateStarred(infos, userID, authed)
	if err != nil {
		httputil.Err(w, err)
		return
	}
	httputil.OK(w, out)
}

// boundsFromQuery parses sw_lat/sw_lng/ne_lat/ne_lng query params.
// All four present makes a viewport; none present means unbounded;
// anything in between is malformed.
func boundsFromQuery(r *http.Request) (*share.Bounds, error) {
	q := r.URL.Query()
	keys := []string{"sw_lat", "sw_lng", "ne_lat", "ne_lng"}

	present := 0
	for _, k := range keys {
		if q.Get(k) != "" {
			present++
		}
	}
	if present == 0 {
		return nil, nil
	}
	if present != len(keys) {
		return nil, strconv.ErrSyntax
	}

	vals := make([]float64, len(keys))
	for i, k := range keys {
		v, err := strconv.ParseFloat(q.Get(k), 64)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return &share.Bounds{
		SouthwestLat: vals[0],
		SouthwestLng: vals[1],
		NortheastLat: vals[2],
		NortheastLng: vals[3],
	}, nil
}
