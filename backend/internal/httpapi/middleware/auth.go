package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Claims 的形状和 auth-service 签发的保持一致
type Claims struct {
	UserID   uint64 `json:"sub"`
	Username string `json:"username"`
	Type     string `json:"typ"` // "access"
	jwt.RegisteredClaims
}

// AuthMiddleware 在本地校验 access token（和 auth-service 共享对称密钥），
// 校验通过后把 userId/username 写入 gin.Context。
func AuthMiddleware(secret string) gin.HandlerFunc {
	key := []byte(secret)

	return func(c *gin.Context) {
		tokenString := extractBearer(c.Request.Header.Get("Authorization"))
		if tokenString == "" {
			// 兼容 WebSocket：浏览器无法自定义 Header，允许从 query ?token= 中获取
			tokenString = strings.TrimSpace(c.Query("token"))
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(401, gin.H{
				"code":    "UNAUTHENTICATED",
				"message": "Authorization header is missing or invalid",
			})
			return
		}

		token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
			return key, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(401, gin.H{
				"code":    "UNAUTHENTICATED",
				"message": "invalid token",
			})
			return
		}
		claims, ok := token.Claims.(*Claims)
		if !ok {
			c.AbortWithStatusJSON(401, gin.H{
				"code":    "UNAUTHENTICATED",
				"message": "invalid token",
			})
			return
		}
		// 只接受访问令牌，刷新令牌不能用来调接口
		if claims.Type != "" && claims.Type != "access" {
			c.AbortWithStatusJSON(401, gin.H{
				"code":    "UNAUTHENTICATED",
				"message": "access token required",
			})
			return
		}

		c.Set("userId", claims.UserID)
		c.Set("username", claims.Username)
		c.Next()
	}
}

func extractBearer(header string) string {
	if header == "" {
		return ""
	}

	// 处理 "Bearer" 前缀（大小写不敏感）
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}

	return ""
}
