package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Vishnulak/PRELEX-GENAI/config"
	"github.com/Vishnulak/PRELEX-GENAI/pkg/logger"
)

// AnonymousTenant owns analyses uploaded without a token.
const AnonymousTenant = "public"

var (
	errMissingHeader = errors.New("authorization header required")
	errHeaderFormat  = errors.New("invalid authorization header format")
	errInvalidToken  = errors.New("invalid or expired token")
)

// Claims represents the JWT claims
type Claims struct {
	Username string `json:"username"`
	Tenant   string `json:"tenant"`
	jwt.RegisteredClaims
}

// GenerateToken generates a new JWT token for a user
func GenerateToken(username, tenant string, cfg *config.AuthConfig) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(time.Duration(cfg.TokenExpireHours) * time.Hour)

	claims := Claims{
		Username: username,
		Tenant:   tenant,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

func parseBearer(header string, cfg *config.AuthConfig) (*Claims, error) {
	if header == "" {
		return nil, errMissingHeader
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, errHeaderFormat
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	return claims, nil
}

func setIdentity(c *gin.Context, username, tenant string) {
	c.Set("username", username)
	c.Set("tenant", tenant)

	ctx := context.WithValue(c.Request.Context(), logger.TenantKey, tenant)
	if username != "" {
		ctx = context.WithValue(ctx, logger.UsernameKey, username)
	}
	c.Request = c.Request.WithContext(ctx)
}

// AuthMiddleware validates JWT token and extracts user info
func AuthMiddleware(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseBearer(c.GetHeader("Authorization"), cfg)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "Unauthorized", err.Error())
			return
		}

		setIdentity(c, claims.Username, claims.Tenant)
		c.Next()
	}
}

// OptionalAuth accepts requests without an Authorization header and files
// them under AnonymousTenant. A header that is present must still be valid.
func OptionalAuth(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			setIdentity(c, "", AnonymousTenant)
			c.Next()
			return
		}

		claims, err := parseBearer(header, cfg)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "Unauthorized", err.Error())
			return
		}
		setIdentity(c, claims.Username, claims.Tenant)
		c.Next()
	}
}

// GetUsername gets the username from context
func GetUsername(c *gin.Context) string {
	return c.GetString("username")
}

// GetTenant gets the tenant from context
func GetTenant(c *gin.Context) string {
	return c.GetString("tenant")
}
