package v1

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	userIDCtxKey    = "user_id"
	usernameCtxKey  = "username"
	requestIDHeader = "X-Request-ID"
)

func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	c.Header("Vary", "Authorization")

	const authHeader = "Authorization"
	header := c.GetHeader(authHeader)
	if header == "" {
		h.logger.Error().Msg("authorization header required")
		abort(c, newUnauthorizedError(errAuthorizationHeader.Error()))
		return
	}

	const bearerScheme = "Bearer"
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], bearerScheme) {
		h.logger.Error().Msg("invalid authorization header")
		abort(c, newUnauthorizedError(errAuthorizationHeader.Error()))
		return
	}

	claims, err := h.auth.ParseAccessToken(parts[1])
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to parse token")
		abort(c, newServiceError(err))
		return
	}

	c.Set(userIDCtxKey, claims.UserID)
	c.Set(usernameCtxKey, claims.Username)
	c.Next()
}

// HandleRequestLogger tags the request with an id and logs it once the
// rest of the chain is done.
func (h *handlerImpl) HandleRequestLogger(c *gin.Context) {
	start := time.Now()

	requestID := c.GetHeader(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header(requestIDHeader, requestID)

	c.Next()

	status := c.Writer.Status()
	event := h.logger.Info()
	if status >= 500 {
		event = h.logger.Error()
	}
	event.
		Str("request_id", requestID).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", status).
		Dur("latency", time.Since(start)).
		Str("client_ip", c.ClientIP()).
		Msg("api request")
}

func authenticatedUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(userIDCtxKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
