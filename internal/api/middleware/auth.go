package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/hourbank/timebank/internal/core/ports"
)

// Context keys set by Auth.
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// Auth validates the JWT and injects the caller's id and role into context.
// With a non-nil sessions the subject is looked up again on every request:
// deleted or deactivated users and tokens older than the last password
// change are refused, and the role comes from the stored user.
func Auth(jwtSecret string, sessions ports.SessionValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "you are not logged in, please log in to get access")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token, please log in again")
			}

			sub, _ := claims["sub"].(string)
			if sub == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing subject")
			}
			role, _ := claims["role"].(string)

			if sessions != nil {
				iat, _ := claims["iat"].(float64)
				user, err := sessions.Authenticate(c.Request().Context(), sub, time.Unix(int64(iat), 0).UTC())
				if err != nil {
					return err
				}
				role = user.Role
			}

			c.Set(ContextUserID, sub)
			c.Set(ContextRole, role)

			return next(c)
		}
	}
}
