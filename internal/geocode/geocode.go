package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/nanumsa/server/internal/apperr"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const (
	defaultJusoBaseURL  = "https://business.juso.go.kr"
	defaultKakaoBaseURL = "https://dapi.kakao.com"

	// Both address APIs meter by key, so outbound calls are paced
	// rather than burst through a traffic spike.
	requestsPerSecond = 10

	cacheTTL   = 24 * time.Hour
	maxResults = 10
)

// Config carries the API keys for the two Korean address services.
type Config struct {
	JusoAPIKey   string
	KakaoRESTKey string
}

// Address is one geocoded result: the official addresses from the
// juso registry plus the coordinate Kakao resolves for them.
type Address struct {
	RoadAddress  string  `json:"doro_address"`
	JibunAddress string  `json:"jibun_address"`
	BuildingName string  `json:"building_name"`
	PointLat     float64 `json:"point_lat"`
	PointLng     float64 `json:"point_lng"`
}

// Client resolves address keywords against juso.go.kr and Kakao.
// The redis cache is optional; with a nil handle every lookup goes
// upstream.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	cache   *redis.Client

	jusoBaseURL  string
	kakaoBaseURL string
}

// DefaultClient is wired in Init() and used by the package handlers.
var DefaultClient *Client

func NewClient(cfg Config, cache *redis.Client) *Client {
	return &Client{
		cfg:          cfg,
		http:         &http.Client{Timeout: 5 * time.Second},
		limiter:      rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		cache:        cache,
		jusoBaseURL:  defaultJusoBaseURL,
		kakaoBaseURL: defaultKakaoBaseURL,
	}
}

// SearchAddress resolves a keyword into geocoded addresses. Results
// are served from the cache when possible; a miss fans out to the
// juso registry and then Kakao per address for coordinates.
func (c *Client) SearchAddress(ctx context.Context, keyword string) ([]Address, error) {
	if cached, ok := c.fromCache(ctx, keyword); ok {
		return cached, nil
	}

	rows, err := c.searchJuso(ctx, keyword)
	if err != nil {
		return nil, err
	}

	addrs := make([]Address, 0, len(rows))
	for _, row := range rows {
		addr := Address{
			RoadAddress:  row.RoadAddr,
			JibunAddress: row.JibunAddr,
			BuildingName: row.BdNm,
		}
		lat, lng, err := c.resolvePoint(ctx, row.RoadAddr)
		if err != nil {
			log.Printf("[geocode] point lookup for %q failed: %v", row.RoadAddr, err)
		} else {
			addr.PointLat = lat
			addr.PointLng = lng
		}
		addrs = append(addrs, addr)
	}

	c.toCache(ctx, keyword, addrs)
	return addrs, nil
}

type jusoRow struct {
	RoadAddr  string `json:"roadAddr"`
	JibunAddr string `json:"jibunAddr"`
	BdNm      string `json:"bdNm"`
}

type jusoResponse struct {
	Results struct {
		Common struct {
			ErrorCode string `json:"errorCode"`
		} `json:"common"`
		Juso []jusoRow `json:"juso"`
	} `json:"results"`
}

func (c *Client) searchJuso(ctx context.Context, keyword string) ([]jusoRow, error) {
	params := url.Values{
		"confmKey":     {c.cfg.JusoAPIKey},
		"keyword":      {keyword},
		"currentPage":  {"1"},
		"countPerPage": {fmt.Sprint(maxResults)},
		"resultType":   {"json"},
	}
	endpoint := c.jusoBaseURL + "/addrlink/addrLinkApi.do?" + params.Encode()

	var resp jusoResponse
	if err := c.getJSON(ctx, "juso", endpoint, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Results.Common.ErrorCode != "0" {
		return nil, fmt.Errorf("%w: juso error code %s", apperr.ErrUpstream, resp.Results.Common.ErrorCode)
	}
	return resp.Results.Juso, nil
}

type kakaoResponse struct {
	Documents []struct {
		X string `json:"x"`
		Y string `json:"y"`
	} `json:"documents"`
}

// resolvePoint asks Kakao for the coordinate of a road address.
// Kakao returns x/y as strings; x is longitude.
func (c *Client) resolvePoint(ctx context.Context, roadAddr string) (lat, lng float64, err error) {
	endpoint := c.kakaoBaseURL + "/v2/local/search/address.json?query=" + url.QueryEscape(roadAddr)
	headers := map[string]string{"Authorization": "KakaoAK " + c.cfg.KakaoRESTKey}

	var resp kakaoResponse
	if err := c.getJSON(ctx, "kakao", endpoint, headers, &resp); err != nil {
		return 0, 0, err
	}
	if len(resp.Documents) == 0 {
		return 0, 0, fmt.Errorf("%w: kakao found no point for %q", apperr.ErrUpstream, roadAddr)
	}

	doc := resp.Documents[0]
	if _, err := fmt.Sscanf(doc.Y, "%f", &lat); err != nil {
		return 0, 0, fmt.Errorf("%w: kakao returned malformed latitude %q", apperr.ErrUpstream, doc.Y)
	}
	if _, err := fmt.Sscanf(doc.X, "%f", &lng); err != nil {
		return 0, 0, fmt.Errorf("%w: kakao returned malformed longitude %q", apperr.ErrUpstream, doc.X)
	}
	return lat, lng, nil
}

// getJSON performs a rate-limited GET with one bounded retry. Any
// transport failure, non-200, or malformed body surfaces as an
// upstream error so handlers answer 502, not 500.
func (c *Client) getJSON(ctx context.Context, provider, endpoint string, headers map[string]string, out any) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %s rate wait: %v", apperr.ErrUpstream, provider, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("building %s request: %w", provider, err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			continue
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: %s: %v", apperr.ErrUpstream, provider, lastErr)
}

func (c *Client) cacheKey(keyword string) string {
	return "geocode:" + keyword
}

func (c *Client) fromCache(ctx context.Context, keyword string) ([]Address, bool) {
	if c.cache == nil {
		return nil, false
	}

	raw, err := c.cache.Get(ctx, c.cacheKey(keyword)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[geocode] cache read failed: %v", err)
		}
		return nil, false
	}

	var addrs []Address
	if err := json.Unmarshal(raw, &addrs); err != nil {
		log.Printf("[geocode] cache entry corrupt for %q: %v", keyword, err)
		return nil, false
	}
	return addrs, true
}

func (c *Client) toCache(ctx context.Context, keyword string, addrs []Address) {
	if c.cache == nil || len(addrs) == 0 {
		return
	}

	raw, err := json.Marshal(addrs)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, c.cacheKey(keyword), raw, cacheTTL).Err(); err != nil {
		log.Printf("[geocode] cache write failed: %v", err)
	}
}
