package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/nanumsa/server/internal/apperr"
	"github.com/nanumsa/server/internal/httputil"
	"github.com/nanumsa/server/internal/utils"
)

// AdminCascader removes a deleted user's tag from every listing it
// administers. Implemented by the share store; kept as an interface
// to avoid an import cycle between auth and share.
type AdminCascader interface {
	RemoveAdminEverywhere(tag int64) error
}

var adminCascade AdminCascader

func SetAdminCascade(c AdminCascader) { adminCascade = c }

type loginInfo struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type socialLoginInfo struct {
	Email         string `json:"email"`
	SocialType    int    `json:"social_type"`
	SocialUID     string `json:"social_uid"`
	NaverClientID string `json:"naver_client_id"`
	KakaoUserID   int64  `json:"kakao_user_id"`
}

type tokenInfo struct {
	Token string `json:"token"`
}

type newUserInfo struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Nickname string   `json:"nickname"`
	Name     string   `json:"name"`
	Contacts []string `json:"contacts"`
}

type resetPasswordInfo struct {
	Password string `json:"password"`
	Token    string `json:"token"`
}

type editUserInfo struct {
	Nickname string `json:"nickname"`
	Password string `json:"password"`
	Contacts string `json:"contacts"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Nickname string `json:"nickname"`
	Tag      int64  `json:"tag"`
	IsSocial bool   `json:"isSocial"`
}

func respondLoggedIn(w http.ResponseWriter, user *User) {
	token, err := DefaultStore.IssueToken(user.ID)
	if err != nil {
		httputil.Err(w, err)
		return
	}
	httputil.OK(w, loginResponse{
		Token:    token,
		Nickname: user.Nickname,
		Tag:      user.Tag,
		IsSocial: user.SocialType != SocialLocal,
	})
}

// LoginWithEmailHandler authenticates a local account and rotates its
// bearer token: issuing the new token invalidates any prior one.
func LoginWithEmailHandler(w http.ResponseWriter, r *http.Request) {
	var info loginInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		httputil.Fail(w, http.StatusBadRequest, "invalid request format")
		return
	}
	if info.Email == "" || info.Password == "" {
		httputil.Fail(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := DefaultStore.FindByCredentials(info.Email, info.Password)
	if err != nil {
		httputil.Fail(w, http.StatusUnauthorized, "login failed")
		return
	}
	respondLoggedIn(w, user)
}

// LoginWithSocialHandler authenticates a social account by its
// provider-specific identifier.
func LoginWithSocialHandler(w http.ResponseWriter, r *http.Request) {
	var info socialLoginInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		httputil.Fail(w, http.StatusBadRequest, "invalid request format")
		return
	}

	user, err := DefaultStore.FindBySocialIdentity(SocialIdentity{
		SocialType:    info.SocialType,
		Email:         info.Email,
		SocialUID:     info.SocialUID,
		NaverClientID: info.NaverClientID,
		KakaoUserID:   info.KakaoUserID,
	})
	if err != nil {
		httputil.Fail(w, http.StatusUnauthorized, "login failed")
		return
	}
	respondLoggedIn(w, user)
}

// LoginWithTokenHandler resumes a session from a stored token, e.g.
// on app relaunch. It does not rotate the token.
func LoginWithTokenHandler(w http.ResponseWriter, r *http.Request) {
	var info tokenInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		httputil.Fail(w, http.StatusBadRequest, "invalid request format")
		return
	}

	userID, err := DefaultStore.FindUserIDByToken(info.Token)
	if err != nil {
		httputil.Fail(w, http.StatusUnauthorized, "no user matches the token")
		return
	}

	user, err := DefaultStore.FindUserByID(userID)
	if err != nil {
		httputil.Err(w, err)
		return
	}
	httputil.OK(w, loginResponse{
		Token:    info.Token,
		Nickname: user.Nickname,
		Tag:      user.Tag,
		IsSocial: user.SocialType != SocialLocal,
	})
}

func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	var info tokenInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		httputil.Fail(w, http.StatusBadRequest, "invalid request format")
		return
	}

	if err := DefaultStore.RevokeToken(info.Token); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			httputil.Fail(w, http.StatusNotFound, "no logout target")
			return
		}
		httputil.Err(w, err)
		return
	}
	httputil.OK(w, "logout complete")
}

// RegisterHandler creates a local account and logs it straight in.
func RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var info newUserInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		httputil.Fail(w, http.StatusBadRequest, "invalid request format")
		return
	}
	if info.Email == "" || info.Password == "" || info.Nickname == "" {
		httputil.Fail(w, http.StatusBadRequest, "email, password and nickname are required")
		return
	}

	taken, err := DefaultStore.EmailTaken(info.Email)
	if err != nil {
		httputil.Err(w, err)
		return
	}
	if taken {
		httputil.Fail(w, http.StatusConflict, "email already exists")
		return
	}

	hashed, err := HashPassword(info.Password)
	if err != nil {
		httputil.Err(w, err)
		return
	}

	user := User{
		Email:          info.Email,
		Nickname:       info.Nickname,
		Name:           info.Name,
		Contacts:       strings.Join(info.Contacts, ","),
		HashedPassword: hashed,
		SocialType:     SocialLocal,
	}
	if err := DefaultStore.CreateUser(&user); err != nil {
		httputil.Err(w, err)
		return
	}
	respondLoggedIn(w, &user)
}

// RegisterSocialHandler finds or creates a social account, then logs
// it in. New accounts get a generated nickname.
func RegisterSocialHandler(w http.ResponseWriter, r *http.Request) {
	var info socialLoginInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		httputil.Fail(w, http.StatusBadRequest, "invalid request format")
		return
	}

	identity := SocialIdentity{
		SocialType:    info.SocialType,
		Email:         info.Email,
		SocialUID:     info.SocialUID,
		NaverClientID: info.NaverClientID,
		KakaoUserID:   info.KakaoUserID,
	}

	user, err := DefaultStore.FindBySocialIdentity(identity)
	if errors.Is(err, apperr.ErrNotFound) {
		created := User{
			Email:         info.Email,
			Nickname:      randomNickname(),
			SocialType:    info.SocialType,
			SocialUID:     info.SocialUID,
			NaverClientID: info.NaverClientID,
			KakaoUserID:   info.KakaoUserID,
		}
		if err := DefaultStore.CreateUser(&created); err != nil {
			httputil.Err(w, err)
			return
		}
		user = &created
	} else if err != nil {
		httputil.Err(w, err)
		return
	}
	respondLoggedIn(w, user)
}

// ResetPasswordWithTokenHandler consumes a mailed reset token and
// installs the new password. Tokens are single-use.
func ResetPasswordWithTokenHandler(w http.ResponseWriter, r *http.Request) {
	var info resetPasswordInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		httputil.Fail(w, http.StatusBadRequest, "invalid request format")
		return
	}

	if err := DefaultStore.ConsumeResetToken(info.Token, info.Password); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			httputil.Fail(w, http.StatusNotFound, "token does not exist or has expired")
			return
		}
		httputil.Err(w, err)
		return
	}
	httputil.OK(w, "password change complete")
}

func ChangeNicknameHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.Err(w, apperr.ErrUnauthorized)
		return
	}

	var info editUserInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		httputil.Fail(w, http.StatusBadRequest, "invalid request format")
		return
	}

	if err := DefaultStore.UpdateNickname(userID, info.Nickname); err != nil {
		httputil.Err(w, err)
		return
	}
	httputil.OK(w, map[string]string{"nickname": info.Nickname})
}

func ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.Err(w, apperr.ErrUnauthorized)
		return
	}

	var info editUserInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		httputil.Fail(w, http.StatusBadRequest, "invalid request format")
		return
	}

	if err := DefaultStore.UpdatePassword(userID, info.Password); err != nil {
		httputil.Err(w, err)
		return
	}
	httputil.OK(w, "password change complete")
}

// VerifyPasswordHandler checks the caller's current password, used
// before sensitive profile edits.
func VerifyPasswordHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.Err(w, apperr.ErrUnauthorized)
		return
	}

	var info editUserInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		httputil.Fail(w, http.StatusBadRequest, "invalid request format")
		return
	}

	if err := DefaultStore.VerifyPassword(userID, info.Password); err != nil {
		httputil.Fail(w, http.StatusUnauthorized, "password does not match")
		return
	}
	httputil.OK(w, "password matches")
}

func ChangeContactsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.Err(w, apperr.ErrUnauthorized)
		return
	}

	var info editUserInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		httputil.Fail(w, http.StatusBadRequest, "invalid request format")
		return
	}

	if err := DefaultStore.UpdateContacts(userID, info.Contacts); err != nil {
		httputil.Err(w, err)
		return
	}
	httputil.OK(w, "contacts change complete")
}

func GetContactsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.Err(w, apperr.ErrUnauthorized)
		return
	}

	user, err := DefaultStore.FindUserByID(userID)
	if err != nil {
		httputil.Err(w, err)
		return
	}
	httputil.OK(w, map[string]string{"contacts": user.Contacts})
}

func parseTagList(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	tags := make([]int64, 0, len(parts))
	for _, p := range parts {
		tag, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, apperr.ErrValidation
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// GetUsersByTagsHandler returns full user rows for a comma-joined
// list of tags, e.g. the members of a listing's admin-set.
func GetUsersByTagsHandler(w http.ResponseWriter, r *http.Request) {
	tags, err := parseTagList(chi.URLParam(r, "tags"))
	if err != nil {
		httputil.Fail(w, http.StatusBadRequest, "tags must be comma-joined integers")
		return
	}

	users, err := DefaultStore.FindUsersByTags(tags)
	if err != nil {
		httputil.Err(w, err)
		return
	}
	if len(users) == 0 {
		httputil.Fail(w, http.StatusNotFound, "no matching users")
		return
	}
	httputil.OK(w, users)
}

// AdminInfoByTagsHandler returns just nickname+tag pairs, enough for
// rendering an admin list in the client.
func AdminInfoByTagsHandler(w http.ResponseWriter, r *http.Request) {
	tags, err := parseTagList(r.URL.Query().Get("tags"))
	if err != nil {
		httputil.Fail(w, http.StatusBadRequest, "tags must be comma-joined integers")
		return
	}

	users, err := DefaultStore.FindUsersByTags(tags)
	if err != nil {
		httputil.Err(w, err)
		return
	}

	type adminInfo struct {
		Nickname string `json:"nickname"`
		Tag      int64  `json:"tag"`
	}
	out := make([]adminInfo, 0, len(users))
	for _, u := range users {
		out = append(out, adminInfo{Nickname: u.Nickname, Tag: u.Tag})
	}
	httputil.OK(w, out)
}

// DeleteUserHandler soft-deletes the calling account. The user's tag
// is first removed from every listing it administers; each listing's
// cascade failure is logged and skipped, not rolled back. The social
// provider unlink is best-effort for the same reason.
func DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.Err(w, apperr.ErrUnauthorized)
		return
	}

	user, err := DefaultStore.FindUserByID(userID)
	if err != nil {
		httputil.Err(w, err)
		return
	}

	if adminCascade != nil {
		if err := adminCascade.RemoveAdminEverywhere(user.Tag); err != nil {
			log.Printf("[auth] admin cascade for tag %d: %v", user.Tag, err)
		}
	}

	if user.SocialType != SocialLocal && DefaultUnlinker != nil {
		if err := DefaultUnlinker.Unlink(r.Context(), user); err != nil {
			log.Printf("[auth] social unlink for user %d: %v", user.ID, err)
		}
	}

	if err := DefaultStore.SoftDeleteUser(userID); err != nil {
		httputil.Err(w, err)
		return
	}
	httputil.OK(w, "account deletion complete")
}
