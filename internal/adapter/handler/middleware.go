package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const (
	actorKey          = "actor"
	idempotencyHeader = "Idempotency-Key"
)

// ActorResolver turns an auth provider uid into the actor the core sees.
type ActorResolver interface {
	Actor(ctx context.Context, uid string) (domain.Actor, error)
}

func RequestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"remote_ip":  c.ClientIP(),
		})
		if a, ok := c.Get(actorKey); ok {
			entry = entry.WithField("actor", a.(domain.Actor).ProfileID)
		}

		switch status := c.Writer.Status(); {
		case len(c.Errors) > 0:
			entry.Error(c.Errors.ByType(gin.ErrorTypePrivate).String())
		case status >= 500:
			entry.Error("request failed")
		case status >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request completed")
		}
	}
}

// Authenticate verifies the bearer token and stores the resolved actor in
// the gin context.
func Authenticate(auth port.Authenticator, actors ActorResolver, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "authorization header required"})
			return
		}

		uid, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			log.WithError(err).Debug("token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
			return
		}

		actor, err := actors.Actor(c.Request.Context(), uid)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// Idempotent rejects a repeated Idempotency-Key for the same actor. The key
// is released when the request fails so the client can retry.
func Idempotent(guard port.IdempotencyGuard, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(idempotencyHeader))
		if key == "" {
			c.Next()
			return
		}
		key = actorFrom(c).ProfileID + ":" + c.FullPath() + ":" + key

		ok, err := guard.SetIdempotency(c.Request.Context(), key)
		if err != nil {
			log.WithError(err).Error("idempotency check failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusConflict, ErrorResponse{Error: "duplicate request"})
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := guard.ReleaseIdempotency(context.WithoutCancel(c.Request.Context()), key); err != nil {
				log.WithError(err).Warn("failed to release idempotency key")
			}
		}
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func actorFrom(c *gin.Context) domain.Actor {
	if a, ok := c.Get(actorKey); ok {
		return a.(domain.Actor)
	}
	return domain.Actor{}
}

func abortWithError(c *gin.Context, err error) {
	code, msg := httpStatus(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(code, ErrorResponse{Error: msg})
}
