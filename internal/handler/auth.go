package handler

import (
	"net/http"

	"github.com/kotoba-dev/kotoba/internal/logger"
	"github.com/kotoba-dev/kotoba/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login authenticates a moderator against the configured credential list and
// issues a JWT, both as a cookie and in the body for API clients. A bcrypt
// comparison runs even for unknown logins so the response time does not leak
// which logins exist.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body LoginRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	storedHash := dummyBcryptHash
	found := false
	for _, moderator := range h.cfg.Private.Moderators {
		if moderator.Login == body.Login {
			storedHash = moderator.PasswordHash
			found = true
			break
		}
	}

	err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(body.Password))
	if err != nil || !found {
		logger.Log.Info("failed login attempt", "login", body.Login)
		http.Error(w, "Invalid login or password", http.StatusUnauthorized)
		return
	}

	token, err := h.jwt.NewToken(body.Login)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.Public.SecureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(h.cfg.JwtTTL().Seconds()),
	})
	writeJSON(w, LoginResponse{AccessToken: token})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.Public.SecureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusOK)
}

// Hash of an empty password, used to equalize timing for unknown logins.
const dummyBcryptHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
