package geocode

import (
	"net/http"
	"strings"

	"github.com/nanumsa/server/internal/httputil"
)

// SearchAddressHandler geocodes an address keyword for the listing
// registration form.
func SearchAddressHandler(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	if strings.TrimSpace(keyword) == "" {
		httputil.Fail(w, http.StatusBadRequest, "keyword is required")
		return
	}

	addrs, err := DefaultClient.SearchAddress(r.Context(), keyword)
	if err != nil {
		httputil.Err(w, err)
		return
	}
	if len(addrs) == 0 {
		httputil.Fail(w, http.StatusNotFound, "no matching address")
		return
	}
	httputil.OK(w, addrs)
}
