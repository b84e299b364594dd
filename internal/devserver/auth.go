package devserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"

	"github.com/five82/lectern/internal/viewer"
)

const claimsKey = "claims"

// Issuer signs and validates HS256 session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	method jwt.SigningMethod
}

// NewIssuer returns an Issuer. A zero ttl issues tokens valid for a day.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, method: jwt.SigningMethodHS256}
}

// Sign issues a token for uid.
func (i *Issuer) Sign(uid, name string) (string, error) {
	claims := &viewer.Claims{
		UID:  uid,
		Name: name,
		StandardClaims: jwt.StandardClaims{
			Subject:   uid,
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(i.ttl).Unix(),
		},
	}
	return jwt.NewWithClaims(i.method, claims).SignedString(i.secret)
}

// Validate checks the signature and expiry of tokenStr.
func (i *Issuer) Validate(tokenStr string) (*viewer.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &viewer.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != i.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", token.Method.Alg())
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*viewer.Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UID == "" {
		claims.UID = claims.Subject
	}
	return claims, nil
}

func extractBearer(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", errors.New("missing bearer token")
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

// VerifyToken rejects requests without a valid bearer token.
func VerifyToken(i *Issuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr, err := extractBearer(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Sign in to continue")
			}
			claims, err := i.Validate(tokenStr)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Session is invalid or expired")
			}
			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

func claimsFrom(c echo.Context) *viewer.Claims {
	claims, _ := c.Get(claimsKey).(*viewer.Claims)
	return claims
}
