package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/intervue/internal/models"
	"github.com/yoockh/intervue/internal/utils"
)

// RequireRole lets the request through only when the "role" set by JWTAuth
// is one of allowed. Comparison is case-insensitive.
func RequireRole(allowed ...models.UserRole) gin.HandlerFunc {
	allow := make(map[models.UserRole]struct{}, len(allowed))
	for _, a := range allowed {
		allow[normalizeRole(string(a))] = struct{}{}
	}

	return func(c *gin.Context) {
		role := normalizeRole(c.GetString("role"))
		if _, ok := allow[role]; role == "" || !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, apiError{
				Code:    utils.CodeForbidden,
				Message: "forbidden",
			})
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc { return RequireRole(models.RoleAdmin) }

func normalizeRole(r string) models.UserRole {
	return models.UserRole(strings.ToLower(strings.TrimSpace(r)))
}
