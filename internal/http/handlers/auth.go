package handlers

import (
	"net/http"

	"estatehub/internal/domain"
	"estatehub/internal/http/middleware"
	"estatehub/internal/services"
	"estatehub/internal/utils"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func authService(c *gin.Context) services.AuthService {
	s := currentSettings()
	return services.AuthService{
		Secret:     s.JWTSecret,
		AccessTTL:  s.AccessTokenTTL,
		RefreshTTL: s.RefreshTokenTTL,
		RequestID:  middleware.GetRequestID(c),
	}
}

// ParseAccessToken verifies a bearer token with the configured secret.
func ParseAccessToken(token string) (domain.RequestContext, error) {
	return services.AuthService{Secret: currentSettings().JWTSecret}.ParseAccessToken(token)
}

// POST /api/auth/login
func Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	toks, err := authService(c).Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toks)
}

// POST /api/auth/refresh
func Refresh(c *gin.Context) {
	var req refreshRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	toks, err := authService(c).Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toks)
}

// POST /api/auth/logout
//
// Always answers 204; a failed revocation is only logged.
func Logout(c *gin.Context) {
	var req refreshRequest
	_ = c.ShouldBindJSON(&req)
	if err := authService(c).Logout(c.Request.Context(), req.RefreshToken); err != nil {
		utils.LogError(middleware.GetRequestID(c), "auth", "logout", err)
	}
	c.Status(http.StatusNoContent)
}

// GET /api/auth/me
func Me(c *gin.Context) {
	rc, ok := requestUser(c)
	if !ok {
		return
	}
	u, err := authService(c).Me(c.Request.Context(), rc.UserID)
	if domain.IsNotFound(err) {
		respondError(c, http.StatusUnauthorized, "unauthorized", "account no longer exists", nil)
		return
	}
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// POST /api/auth/register
func Register(c *gin.Context) {
	var req services.RegisterInput
	if !BindJSONOrError(c, &req) {
		return
	}
	u, err := authService(c).Register(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u})
}
