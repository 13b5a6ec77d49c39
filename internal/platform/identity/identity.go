// Package identity extracts the calling user from incoming requests.
//
// Two modes are supported. In header mode the service trusts an upstream
// gateway to authenticate the caller and forward their ID in X-User-ID.
// In jwt mode the service verifies an HS256 bearer token and takes the
// caller ID from the subject claim. Neither mode consults the database;
// role checks happen in the domain services against the user record.
package identity

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

// CallerIDKey holds the authenticated caller's user ID in the request context.
const CallerIDKey contextKey = "caller_id"

// UserIDHeader carries the caller ID in header mode.
const UserIDHeader = "X-User-ID"

const (
	ModeHeader = "header"
	ModeJWT    = "jwt"
)

// Middleware returns the caller extraction middleware for the given mode.
// Requests without a valid identity are rejected with 401.
func Middleware(mode, secret string) echo.MiddlewareFunc {
	if mode == ModeJWT {
		return jwtMiddleware([]byte(secret))
	}
	return headerMiddleware()
}

func headerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(UserIDHeader)
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing "+UserIDHeader+" header")
			}
			callerID, err := uuid.Parse(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid "+UserIDHeader+" header")
			}
			setCaller(c, callerID)
			return next(c)
		}
	}
}

func jwtMiddleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			tokenStr := strings.TrimPrefix(header, "Bearer ")

			token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return secret, nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sub, err := token.Claims.GetSubject()
			if err != nil || sub == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
			}
			callerID, err := uuid.Parse(sub)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "token subject is not a user ID")
			}
			setCaller(c, callerID)
			return next(c)
		}
	}
}

func setCaller(c echo.Context, callerID uuid.UUID) {
	// echo-level key feeds the request logger and rate limiter.
	c.Set("user_id", callerID.String())
	ctx := context.WithValue(c.Request().Context(), CallerIDKey, callerID)
	c.SetRequest(c.Request().WithContext(ctx))
}

// CallerIDFromContext returns the caller ID stored by the middleware.
// The zero UUID means the request was not authenticated.
func CallerIDFromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(CallerIDKey).(uuid.UUID)
	return id
}
