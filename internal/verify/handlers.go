package verify

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/nanumsa/server/internal/apperr"
	"github.com/nanumsa/server/internal/auth"
	"github.com/nanumsa/server/internal/httputil"
)

// DefaultSender is wired in Init(). A nil sender means mail delivery
// is disabled; tokens are logged instead so the flows stay testable
// locally.
var DefaultSender Sender

type emailRequest struct {
	Email string `json:"email"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

func deliver(to, subject, body string) error {
	if DefaultSender == nil {
		log.Printf("[verify] mail delivery disabled, would send to %s: %s", to, body)
		return nil
	}
	if err := DefaultSender.Send(to, subject, body); err != nil {
		log.Printf("[verify] mail to %s failed: %v", to, err)
		return fmt.Errorf("%w: mail delivery", apperr.ErrUpstream)
	}
	return nil
}

// RequestPasswordResetHandler mails a single-use reset token to the account's
// email. An unknown email is a 404 so the client can tell the user
// there is no such account.
func RequestPasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := auth.DefaultStore.FindUserByEmail(req.Email)
	if err != nil {
		httputil.Err(w, err)
		return
	}

	token, err := auth.DefaultStore.CreateResetToken(user)
	if err != nil {
		httputil.Err(w, err)
		return
	}

	if err := deliver(user.Email, "나눔사 비밀번호 재설정",
		"아래 인증 코드를 입력해 비밀번호를 재설정하세요.\n\n"+token); err != nil {
		httputil.Err(w, err)
		return
	}
	httputil.OK(w, "reset mail sent")
}

// RequestEmailVerifyHandler mails a verification token to the address. A
// repeated request supersedes the earlier token.
func RequestEmailVerifyHandler(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		httputil.Fail(w, http.StatusBadRequest, "email is required")
		return
	}

	token, err := DefaultStore.CreateVerifyToken(req.Email)
	if err != nil {
		httputil.Err(w, err)
		return
	}

	if err := deliver(req.Email, "나눔사 이메일 인증",
		"아래 인증 코드를 입력해 이메일을 인증하세요.\n\n"+token); err != nil {
		httputil.Err(w, err)
		return
	}
	httputil.OK(w, "verify mail sent")
}

// ConfirmEmailVerifyHandler consumes a verification token. The result code
// mirrors what signup pages expect: 0 when the token was already used,
// 1 when it does not exist. A fresh verification also pings the
// websocket bridge so an open signup page advances on its own.
func ConfirmEmailVerifyHandler(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	email, already, err := DefaultStore.ConsumeVerifyToken(req.Token)
	if errors.Is(err, apperr.ErrNotFound) {
		httputil.OK(w, map[string]int{"result": 1})
		return
	}
	if err != nil {
		httputil.Err(w, err)
		return
	}
	if already {
		httputil.OK(w, map[string]int{"result": 0})
		return
	}

	DefaultNotifier.NotifyVerified(email)
	httputil.OK(w, "verified")
}
