package middleware

import (
	"errors"
	"net/http"
	"strings"

	"coinmeet/config"
	"coinmeet/internal/auth"
	"coinmeet/internal/domain"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID   = "user_id"
	ctxUserType = "user_type"
	ctxClaims   = "claims"
)

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message, "data": nil})
}

// AuthRequired accepts "Authorization: Bearer <jwt>" and stores the caller's
// id, type and claims on the context.
func AuthRequired(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, http.StatusUnauthorized, "missing authorization header")
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			abort(c, http.StatusUnauthorized, "invalid authorization format")
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if errors.Is(err, auth.ErrExpiredToken) {
			abort(c, http.StatusUnauthorized, "token expired")
			return
		}
		if err != nil {
			abort(c, http.StatusUnauthorized, "invalid token")
			return
		}
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUserType, claims.UserType)
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

// RequireUserType lets through only the listed account types. It must run
// after AuthRequired.
func RequireUserType(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		t := GetUserType(c)
		if t == "" {
			abort(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		for _, a := range allowed {
			if t == a {
				c.Next()
				return
			}
		}
		if len(allowed) == 1 && allowed[0] == domain.UserTypeAdmin {
			abort(c, http.StatusForbidden, "admin access required")
			return
		}
		abort(c, http.StatusForbidden, "forbidden for "+t+" accounts")
	}
}

// AdminRequired guards the /admin routes.
func AdminRequired() gin.HandlerFunc {
	return RequireUserType(domain.UserTypeAdmin)
}

func GetUserID(c *gin.Context) uint {
	v, _ := c.Get(ctxUserID)
	id, _ := v.(uint)
	return id
}

func GetUserType(c *gin.Context) string {
	v, _ := c.Get(ctxUserType)
	t, _ := v.(string)
	return t
}

// GetClaims returns the parsed token, or nil outside AuthRequired.
func GetClaims(c *gin.Context) *auth.Claims {
	v, _ := c.Get(ctxClaims)
	cl, _ := v.(*auth.Claims)
	return cl
}
