package middlewares

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"veterinary-backend/config"
)

const (
	FunctionKeyHeader = "x-functions-key"
	FunctionKeyQuery  = "code"

	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
)

type authorizer struct {
	plain  [][]byte
	hashed [][]byte
	secret []byte

	// sha256(key) of keys that already passed a bcrypt comparison
	verified sync.Map
}

// Authorize enforces the configured authorization level. With level
// "function" a caller needs a function key (header or ?code=) or an HS256
// bearer token signed with the configured secret.
func Authorize(cfg config.AuthConfig) fiber.Handler {
	if cfg.Level != config.AuthFunction {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	a := &authorizer{}
	for _, k := range cfg.Keys() {
		if _, err := bcrypt.Cost([]byte(k)); err == nil {
			a.hashed = append(a.hashed, []byte(k))
		} else {
			a.plain = append(a.plain, []byte(k))
		}
	}
	if cfg.JWTSecret != "" {
		a.secret = []byte(cfg.JWTSecret)
	}

	return func(c *fiber.Ctx) error {
		if key := presentedKey(c); key != "" && a.validKey(key) {
			return c.Next()
		}
		if h := c.Get(authHeader); h != "" && a.validBearer(h) {
			return c.Next()
		}

		GetLogger(c).Warn().Msg("rejected unauthorized request")
		return c.Status(fiber.StatusUnauthorized).SendString("unauthorized")
	}
}

func presentedKey(c *fiber.Ctx) string {
	if k := strings.TrimSpace(c.Get(FunctionKeyHeader)); k != "" {
		return k
	}
	return strings.TrimSpace(c.Query(FunctionKeyQuery))
}

func (a *authorizer) validKey(key string) bool {
	presented := []byte(key)
	for _, k := range a.plain {
		if subtle.ConstantTimeCompare(presented, k) == 1 {
			return true
		}
	}
	if len(a.hashed) == 0 {
		return false
	}

	sum := sha256.Sum256(presented)
	digest := hex.EncodeToString(sum[:])
	if _, ok := a.verified.Load(digest); ok {
		return true
	}
	for _, h := range a.hashed {
		if bcrypt.CompareHashAndPassword(h, presented) == nil {
			a.verified.Store(digest, struct{}{})
			return true
		}
	}
	return false
}

func (a *authorizer) validBearer(h string) bool {
	if a.secret == nil || !strings.HasPrefix(strings.ToLower(h), strings.ToLower(bearerPrefix)) {
		return false
	}
	raw := strings.TrimSpace(h[len(bearerPrefix):])
	if raw == "" {
		return false
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	var claims jwt.RegisteredClaims
	token, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return false
	}
	return strings.TrimSpace(claims.Subject) != ""
}

// GenerateJWT signs an HS256 token for subject that expires after ttl.
func GenerateJWT(secret, subject string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("JWT secret not configured (set VET_AUTH__JWT_SECRET)")
	}
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("token subject is empty")
	}
	now := time.Now()
	claims := &jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// HashFunctionKey returns a bcrypt hash suitable for VET_AUTH__FUNCTION_KEYS.
func HashFunctionKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.New("function key is empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
