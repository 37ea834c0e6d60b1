package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyHeader はAPIキーを渡すリクエストヘッダーです。
const APIKeyHeader = "X-API-KEY"

// APIKeyMiddleware はX-API-KEYヘッダーを検証します。apiKeyが空の場合は認証しません。
func APIKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		provided := c.GetHeader(APIKeyHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			respondError(c, http.StatusUnauthorized, CodeUnauthorized, "Unauthorized")
			return
		}
		c.Next()
	}
}
