package handlers

import (
	"net/http"

	"github.com/dom/watchnest/internal/api/middleware"
	"github.com/dom/watchnest/internal/config"
	"github.com/dom/watchnest/internal/service"
)

func cookieSettings(cfg *config.Config) (bool, http.SameSite) {
	if cfg.IsProduction() {
		return true, http.SameSiteNoneMode
	}
	return false, http.SameSiteLaxMode
}

func setAuthCookies(w http.ResponseWriter, cfg *config.Config, pair service.TokenPair) {
	secure, sameSite := cookieSettings(cfg)
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(cfg.AccessTokenTTL().Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.RefreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   int(cfg.RefreshTokenTTL().Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

func clearAuthCookies(w http.ResponseWriter, cfg *config.Config) {
	secure, sameSite := cookieSettings(cfg)
	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   secure,
			SameSite: sameSite,
		})
	}
}
