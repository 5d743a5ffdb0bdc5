package main

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type creds struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return invalid("invalid request body")
	}
	return nil
}

func (a *App) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	acc, err := a.sessions.Register(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.log.Info("auth.register", zap.Int64("no", acc.No))
	writeMessage(w, http.StatusOK, "registered")
}

func (a *App) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var c creds
	if err := decodeJSON(w, r, &c); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.sessions.Login(r.Context(), c.Email, c.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.log.Info("auth.login", zap.Int64("no", res.Account.No))
	a.setRefreshCookie(w, res.RefreshToken)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"accessToken": res.AccessToken,
		"profile":     res.Account.Profile(),
	})
}

func (a *App) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	pair, err := a.sessions.Refresh(r.Context(), a.refreshFromRequest(r))
	if err != nil {
		a.clearRefreshCookie(w)
		a.fail(w, r, err)
		return
	}
	a.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": pair.AccessToken})
}

func (a *App) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Logout(r.Context(), a.refreshFromRequest(r)); err != nil {
		a.fail(w, r, err)
		return
	}
	a.clearRefreshCookie(w)
	writeMessage(w, http.StatusOK, "logged out")
}

func (a *App) HandleCheckEmailDuplicate(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	exists, err := a.sessions.EmailExists(r.Context(), in.Email)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

// HandleMe returns the profile behind the presented access token.
func (a *App) HandleMe(w http.ResponseWriter, r *http.Request) {
	acc, err := a.DB.GetAccount(r.Context(), accountNo(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc.Profile())
}

// refreshFromRequest reads the refresh cookie, falling back to the
// X-Refresh-Token header for non-browser clients.
func (a *App) refreshFromRequest(r *http.Request) string {
	if c, err := r.Cookie(a.cookie.Name); err == nil && c.Value != "" {
		return c.Value
	}
	return r.Header.Get("X-Refresh-Token")
}

func (a *App) setRefreshCookie(w http.ResponseWriter, raw string) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookie.Name,
		Value:    raw,
		Path:     a.cookie.Path,
		Domain:   a.cookie.Domain,
		HttpOnly: true,
		Secure:   a.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(a.refreshTTL.Seconds()),
		Expires:  time.Now().Add(a.refreshTTL).UTC(),
	})
}

func (a *App) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookie.Name,
		Value:    "",
		Path:     a.cookie.Path,
		Domain:   a.cookie.Domain,
		HttpOnly: true,
		Secure:   a.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	})
}
