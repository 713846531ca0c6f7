package middleware

import (
	"crypto/subtle"
	"net/http"
	"time"

	"wallet-ledger-service/pkg/apperror"
	"wallet-ledger-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// HeaderServiceKey authenticates the order/refund workflow on the
	// mutating wallet endpoints.
	HeaderServiceKey = "X-Service-Key"

	// Context keys
	CtxRequestID = "request_id"
	CtxAdminSub  = "admin_subject"
)

// RequestID assigns a request ID to every request, honoring an inbound
// X-Request-ID so IDs correlate across the platform.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(CtxRequestID, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// ServiceKeyAuth verifies the shared service key on workflow endpoints.
// Comparison is constant-time.
func ServiceKeyAuth(serviceKey string, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(HeaderServiceKey)
		if serviceKey == "" || provided == "" ||
			subtle.ConstantTimeCompare([]byte(provided), []byte(serviceKey)) != 1 {
			log.Warn().Str("client_ip", c.ClientIP()).Msg("service key rejected")
			response.Error(c, apperror.ErrInvalidServiceKey())
			c.Abort()
			return
		}
		c.Next()
	}
}

// adminClaims are the claims expected on admin bearer tokens. Tokens are
// issued by the platform's auth service; this engine only validates them.
type adminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTAuth validates HS256 admin bearer tokens for the review endpoints.
func JWTAuth(secret, issuer string, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			response.Error(c, apperror.ErrInvalidToken())
			c.Abort()
			return
		}

		claims := &adminClaims{}
		opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
		if issuer != "" {
			opts = append(opts, jwt.WithIssuer(issuer))
		}

		token, err := jwt.ParseWithClaims(authHeader[7:], claims, func(*jwt.Token) (any, error) {
			return []byte(secret), nil
		}, opts...)
		if err != nil || !token.Valid {
			log.Warn().Err(err).Str("client_ip", c.ClientIP()).Msg("admin token rejected")
			response.Error(c, apperror.ErrInvalidToken())
			c.Abort()
			return
		}
		if claims.Role != "admin" {
			response.Error(c, apperror.ErrInvalidToken())
			c.Abort()
			return
		}

		c.Set(CtxAdminSub, claims.Subject)
		c.Next()
	}
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString(CtxRequestID)).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error_code": "SYS_002",
					"message":    "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// MaxBodySize returns middleware that limits the request body size.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
