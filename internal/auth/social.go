package auth

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nanumsa/server/internal/apperr"
)

// SocialConfig holds the provider credentials needed to unlink a
// social account when its owner deletes their nanumsa account.
type SocialConfig struct {
	NaverClientID     string
	NaverClientSecret string
	KakaoAdminKey     string
}

// Unlinker detaches a deleted account from its social provider.
// Calls are bounded: a 5s timeout and one retry, with exhaustion
// surfaced as an upstream error.
type Unlinker struct {
	cfg        SocialConfig
	httpClient *http.Client
}

// DefaultUnlinker is wired in Init().
var DefaultUnlinker *Unlinker

func NewUnlinker(cfg SocialConfig) *Unlinker {
	return &Unlinker{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Unlink tells the user's social provider to revoke the app link.
// Apple and Google accounts are managed by an external identity
// collaborator and only logged here.
func (u *Unlinker) Unlink(ctx context.Context, user *User) error {
	switch user.SocialType {
	case SocialNaver:
		q := url.Values{}
		q.Set("grant_type", "delete")
		q.Set("client_id", u.cfg.NaverClientID)
		q.Set("client_secret", u.cfg.NaverClientSecret)
		q.Set("access_token", user.NaverClientID)

		return u.do("naver", func() (*http.Request, error) {
			return http.NewRequestWithContext(ctx, http.MethodGet,
				"https://nid.naver.com/oauth2.0/token?"+q.Encode(), nil)
		})

	case SocialKakao:
		form := url.Values{}
		form.Set("target_id_type", "user_id")
		form.Set("target_id", strconv.FormatInt(user.KakaoUserID, 10))

		return u.do("kakao", func() (*http.Request, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost,
				"https://kapi.kakao.com/v1/user/unlink", strings.NewReader(form.Encode()))
			if err != nil {
				return nil, err
			}
			req.Header.Set("Authorization", "KakaoAK "+u.cfg.KakaoAdminKey)
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")
			return req, nil
		})

	case SocialApple, SocialGoogle:
		// Firebase-managed identities are deleted by the identity
		// collaborator, not from here.
		log.Printf("[auth] skipping provider unlink for firebase identity uid=%s", user.SocialUID)
		return nil
	}
	return nil
}

// do runs the request with one retry. The request is rebuilt per
// attempt so POST bodies can be re-read.
func (u *Unlinker) do(provider string, makeReq func() (*http.Request, error)) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		req, err := makeReq()
		if err != nil {
			return fmt.Errorf("building %s unlink request: %w", provider, err)
		}
		resp, err := u.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return nil
		}
		lastErr = fmt.Errorf("%s unlink returned HTTP %d", provider, resp.StatusCode)
	}
	return fmt.Errorf("%w: %v", apperr.ErrUpstream, lastErr)
}
