package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/denxi342/discord-bot-dashboard/pkg/config"
	tokenstore "github.com/denxi342/discord-bot-dashboard/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ContextUserIDKey = "current_user_id"
	ContextJTIKey    = "current_jti"
)

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "missing authorization header"})
			return
		}
		parts := strings.Fields(auth)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid authorization header"})
			return
		}

		userIDStr, jti, err := ParseToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": err.Error()})
			return
		}

		c.Set(ContextUserIDKey, userIDStr)
		c.Set(ContextJTIKey, jti)
		c.Next()
	}
}

// ParseToken validates an HMAC JWT and returns the subject (user id string)
// and jti. Shared between the HTTP middleware and the websocket handshake,
// which carries the token as a query parameter instead of a header.
func ParseToken(tokenStr string) (userID string, jti string, err error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		// only accept HMAC signing
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return []byte(config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return "", "", errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", errInvalidToken
	}

	jti, _ = claims["jti"].(string)
	if tokenstore.IsRevoked(jti) {
		return "", "", errRevokedToken
	}

	if sub, ok := claims["sub"].(string); ok {
		userID = sub
	} else if subf, ok := claims["sub"].(float64); ok {
		// jwt lib may parse numeric as float64
		userID = strconv.Itoa(int(subf))
	}
	if userID == "" {
		return "", "", errInvalidToken
	}
	return userID, jti, nil
}

// CurrentUserID reads the authenticated user id set by AuthMiddleware.
func CurrentUserID(c *gin.Context) (uint, bool) {
	raw, _ := c.Get(ContextUserIDKey)
	s, _ := raw.(string)
	if s == "" {
		return 0, false
	}
	uid, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(uid), true
}

var (
	errInvalidToken = jwtError("invalid token")
	errRevokedToken = jwtError("Token has been revoked (logout)")
)

type jwtError string

func (e jwtError) Error() string { return string(e) }
