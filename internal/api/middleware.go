package api

import (
	"alcyxob/upload-service/internal/domain"
	"alcyxob/upload-service/internal/service"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Context keys set by the middleware chain.
const (
	ContextUserIDKey    = "userID"
	ContextUserNameKey  = "userName"
	ContextUserRoleKey  = "userRole"
	ContextRequestIDKey = "requestID"

	requestIDHeader = "X-Request-Id"
)

// TokenParser validates bearer tokens.
type TokenParser interface {
	ParseToken(token string) (*service.Claims, error)
}

// Authorizer checks feature access for an authenticated user.
type Authorizer interface {
	Authorize(ctx context.Context, userID, feature string) (*domain.User, error)
}

// RequestID tags every request with an id, keeping one supplied by the client.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(ContextRequestIDKey, rid)
		c.Header(requestIDHeader, rid)
		c.Next()
	}
}

// RequestLogger writes one structured line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("request_id", c.GetString(ContextRequestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("bytes", c.Writer.Size()),
		}
		if uid := c.GetString(ContextUserIDKey); uid != "" {
			fields = append(fields, zap.String("user_id", uid))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

// AuthMiddleware authenticates the request from a Bearer header, falling back
// to a "token" query parameter.
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := extractToken(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "token is missing")
			return
		}

		claims, err := tokens.ParseToken(tokenString)
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, "Invalid token")
			}
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUserNameKey, claims.Name)
		c.Set(ContextUserRoleKey, claims.Role)
		c.Next()
	}
}

func extractToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			return "", false
		}
		return strings.TrimSpace(token), true
	}
	if token := c.Query("token"); token != "" {
		return token, true
	}
	return "", false
}

// RequireFeature rejects users whose account is inactive or whose role lacks
// feature. Must run after AuthMiddleware.
func RequireFeature(authz Authorizer, feature string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := getUserIDFromContext(c)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, "User ID not found in context")
			return
		}

		user, err := authz.Authorize(c.Request.Context(), userID, feature)
		switch {
		case err == nil:
		case errors.Is(err, service.ErrUserInactive), errors.Is(err, service.ErrUserNotFound):
			abortWithError(c, http.StatusUnauthorized, "User is inactive or does not exist")
			return
		case errors.Is(err, service.ErrPermissionDenied):
			abortWithError(c, http.StatusForbidden, "User does not have sufficient permission to make this request")
			return
		default:
			_ = c.Error(err)
			abortWithError(c, http.StatusInternalServerError, "Could not verify permissions")
			return
		}

		// the stored profile wins over possibly stale token claims
		c.Set(ContextUserNameKey, user.Name)
		c.Set(ContextUserRoleKey, user.Role)
		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

func getUserIDFromContext(c *gin.Context) (string, error) {
	idRaw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", errors.New("user ID not found in context")
	}
	idStr, ok := idRaw.(string)
	if !ok || idStr == "" {
		return "", errors.New("invalid user ID type in context")
	}
	return idStr, nil
}

func getUserRoleFromContext(c *gin.Context) (domain.UserRole, error) {
	roleRaw, exists := c.Get(ContextUserRoleKey)
	if !exists {
		return "", errors.New("user role not found in context")
	}
	role, ok := roleRaw.(domain.UserRole)
	if !ok {
		return "", errors.New("invalid user role type in context")
	}
	return role, nil
}
