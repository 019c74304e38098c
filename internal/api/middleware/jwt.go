package middleware

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"geoevents.io/geoevents/internal/domain"
	apperrors "geoevents.io/geoevents/internal/pkg/errors"
)

// JWTClaims defines the session token claims.
type JWTClaims struct {
	UserID int64  `json:"uid"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTConfig holds JWT signing configuration.
type JWTConfig struct {
	SigningKey []byte
	Issuer     string
	ExpiresIn  time.Duration
	// CookieName is the session cookie read when no Authorization header is sent.
	CookieName string
}

// GenerateToken creates a signed session token for u.
func GenerateToken(cfg JWTConfig, u *domain.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(cfg.ExpiresIn)

	claims := JWTClaims{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Role:   string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   strconv.FormatInt(u.ID, 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(cfg.SigningKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// ValidateToken parses and verifies tokenString.
func (cfg JWTConfig) ValidateToken(tokenString string) (*JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return cfg.SigningKey, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID <= 0 {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// Authenticate populates the request context from a Bearer token or the
// session cookie. Requests without a valid token continue anonymously; the
// failure is kept for RequireAuth to report.
func Authenticate(cfg JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := extractToken(c, cfg.CookieName)
		if err != nil {
			c.Request = c.Request.WithContext(setAuthError(c.Request.Context(), err))
			c.Next()
			return
		}
		if tokenString == "" {
			c.Next()
			return
		}

		claims, err := cfg.ValidateToken(tokenString)
		if err != nil {
			c.Request = c.Request.WithContext(setAuthError(c.Request.Context(), tokenError(err)))
			c.Next()
			return
		}

		p := &Principal{
			UserID: claims.UserID,
			Email:  claims.Email,
			Name:   claims.Name,
			Role:   domain.Role(claims.Role),
		}
		c.Set("user_id", p.UserID)
		c.Request = c.Request.WithContext(SetUserContext(c.Request.Context(), p))
		c.Next()
	}
}

func extractToken(c *gin.Context, cookieName string) (string, error) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", apperrors.Unauthorized(apperrors.CodeTokenInvalid, "invalid authorization header format")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if cookieName == "" {
		return "", nil
	}
	cookie, err := c.Cookie(cookieName)
	if err != nil {
		return "", nil
	}
	return cookie, nil
}

func tokenError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return apperrors.Unauthorized(apperrors.CodeTokenExpired, "token expired")
	}
	return apperrors.Unauthorized(apperrors.CodeTokenInvalid, "invalid token")
}
