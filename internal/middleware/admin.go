package middleware

import (
	"net/http"
	"strings"

	"fortuna/config"
	"fortuna/internal/auth"
	"fortuna/internal/domain"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const AdminKeyHeader = "X-Admin-Key"

// AdminRequired admits an ADMIN-role session or an operator key matching the
// configured bcrypt hash. The operator identity is stored as "operator".
func AdminRequired(jwtCfg *config.JWTConfig, adminCfg *config.AdminConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := c.GetHeader(AdminKeyHeader); key != "" {
			if adminCfg.APIKeyHash != "" && bcrypt.CompareHashAndPassword([]byte(adminCfg.APIKeyHash), []byte(key)) == nil {
				c.Set("operator", "api-key")
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required", "code": "forbidden"})
			return
		}

		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			unauthorized(c, "missing authorization header")
			return
		}
		claims, err := auth.ParseAccessToken(jwtCfg, token)
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}
		if claims.Role != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required", "code": "forbidden"})
			return
		}
		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Set("operator", "user:"+claims.UserID)
		c.Next()
	}
}

// HashAdminKey produces the value stored in admin.apikeyhash.
func HashAdminKey(key string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	return string(b), err
}
