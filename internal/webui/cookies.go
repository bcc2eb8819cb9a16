package webui

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	flashCookie = "flash"
	themeCookie = "theme"

	themeLight = "light"
	themeDark  = "dark"
)

// toast is a dismissible notice shown at the bottom of a page.
type toast struct {
	Kind    string
	Message string
}

func setFlash(c *gin.Context, kind, message string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, kind+"|"+message, 60, "/", "", false, true)
}

// popFlash returns the pending flash toast and clears the cookie.
func popFlash(c *gin.Context) *toast {
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}
	c.SetCookie(flashCookie, "", -1, "/", "", false, true)
	kind, message, ok := strings.Cut(raw, "|")
	if !ok || message == "" {
		return nil
	}
	return &toast{Kind: kind, Message: message}
}

func currentTheme(c *gin.Context) string {
	if v, err := c.Cookie(themeCookie); err == nil && v == themeDark {
		return themeDark
	}
	return themeLight
}

func toggleTheme(c *gin.Context) {
	next := themeDark
	if currentTheme(c) == themeDark {
		next = themeLight
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(themeCookie, next, 365*24*60*60, "/", "", false, false)
	c.Redirect(http.StatusSeeOther, backTo(c))
}

// backTo returns the local path the request came from, or "/".
func backTo(c *gin.Context) string {
	ref, err := url.Parse(c.Request.Referer())
	if err != nil || ref.Path == "" || !strings.HasPrefix(ref.Path, "/") || strings.HasPrefix(ref.Path, "//") {
		return "/"
	}
	if ref.Host != "" && ref.Host != c.Request.Host {
		return "/"
	}
	return ref.RequestURI()
}
