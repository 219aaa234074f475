package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	intconfig "estatehub/internal/config"
	"estatehub/internal/domain"
	"estatehub/internal/http/middleware"
	"estatehub/internal/listing"

	"github.com/gin-gonic/gin"
)

// Settings are the runtime knobs handlers read on every request.
type Settings struct {
	JWTSecret       []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	PageSize        int
}

var (
	settingsMu sync.RWMutex
	settings   = Settings{PageSize: listing.DefaultPageSize}
)

// Configure installs settings derived from env.
func Configure(env intconfig.Env) {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	settings = Settings{
		JWTSecret:       []byte(env.JWTSecret),
		AccessTokenTTL:  env.AccessTokenTTL,
		RefreshTokenTTL: env.RefreshTokenTTL,
		PageSize:        env.ListingPageSize,
	}
}

func currentSettings() Settings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return settings
}

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		respondError(c, http.StatusBadRequest, "empty_body", "request body is required", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_payload", "request body is not valid JSON", nil)
		return false
	}
	return true
}

func parseIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "invalid_id", "id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}

func requestUser(c *gin.Context) (domain.RequestContext, bool) {
	rc, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
	}
	return rc, ok
}
