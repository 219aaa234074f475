package middleware

import (
	"net/http"
	"strings"

	"estatehub/internal/domain"
	"estatehub/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey   = "userID"
	userRoleKey = "userRole"
)

// TokenParser turns a bearer token into the caller's identity.
type TokenParser func(token string) (domain.RequestContext, error)

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's id and role on the context for later handlers.
func RequireAuth(parse TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, "missing bearer token")
			return
		}
		rc, err := parse(token)
		if err != nil {
			utils.LogEvent(GetRequestID(c), "auth", "verify", err.Error())
			abortUnauthorized(c, err.Error())
			return
		}
		c.Set(userIDKey, rc.UserID)
		c.Set(userRoleKey, rc.Role)
		c.Next()
	}
}

// CurrentUser returns the identity stored by RequireAuth.
func CurrentUser(c *gin.Context) (domain.RequestContext, bool) {
	id := c.GetInt64(userIDKey)
	if id <= 0 {
		return domain.RequestContext{}, false
	}
	return domain.RequestContext{UserID: id, Role: c.GetString(userRoleKey)}, true
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":      msg,
		"code":       "unauthorized",
		"request_id": GetRequestID(c),
	})
}
