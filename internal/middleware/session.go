package middleware

import (
	"net/http"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"

	"microblog/internal/auth"
	apperrors "microblog/internal/errors"
	"microblog/internal/model"
	"microblog/internal/service"
)

const (
	identityKey  = "identity"
	sessionIDKey = "session_id"
)

// Session resolves the JWT already validated by echo-jwt into an immutable
// identity for the rest of the request. Tokens whose session record has been
// revoked are rejected even though their signature still verifies.
func Session(authService service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			claims, ok := token.Claims.(*auth.Claims)
			if !ok || claims.ID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			user, err := authService.ResolveSession(c.Request().Context(), claims.ID, claims.UserID)
			if err != nil {
				httpErr := apperrors.MapErrorToHTTP(err)
				return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
			}

			c.Set(identityKey, user)
			c.Set(sessionIDKey, claims.ID)
			return next(c)
		}
	}
}

// CurrentUser returns the authenticated user attached to the request, or nil
// on unauthenticated routes.
func CurrentUser(c echo.Context) *model.User {
	user, _ := c.Get(identityKey).(*model.User)
	return user
}

// SessionID returns the jti of the session token behind the request.
func SessionID(c echo.Context) string {
	id, _ := c.Get(sessionIDKey).(string)
	return id
}
