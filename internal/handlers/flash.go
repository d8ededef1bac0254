package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"
)

const (
	flashCookieName = "flash"
	flashMaxAge     = time.Minute
)

// Severity is the style of a notice.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Notice is a one-shot message shown on the next rendered page.
type Notice struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

func success(message string) Notice { return Notice{Message: message, Severity: SeveritySuccess} }
func info(message string) Notice    { return Notice{Message: message, Severity: SeverityInfo} }
func warning(message string) Notice { return Notice{Message: message, Severity: SeverityWarning} }
func danger(message string) Notice  { return Notice{Message: message, Severity: SeverityDanger} }

// setNotice stores n in a short-lived cookie.
func setNotice(w http.ResponseWriter, n Notice) {
	raw, err := json.Marshal(n)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   int(flashMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popNotice reads and clears the pending notice, if any.
func popNotice(w http.ResponseWriter, r *http.Request) (Notice, bool) {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return Notice{}, false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return Notice{}, false
	}
	var n Notice
	if err := json.Unmarshal(raw, &n); err != nil || n.Message == "" {
		return Notice{}, false
	}
	return n, true
}

// redirectWithNotice sets n and redirects to target.
func redirectWithNotice(w http.ResponseWriter, r *http.Request, target string, n Notice) {
	setNotice(w, n)
	redirect(w, r, target)
}
