package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/sticonf/registration/internal/dto"
)

// Context keys populated by Auth.
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
)

func LoggingMiddleware() ginext.HandlerFunc {
	return func(c *ginext.Context) {
		start := time.Now()
		c.Next()
		zlog.Logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// Auth validates the bearer token minted by the identity layer and stores
// the acting user on the context. Token format: base64url(userID|email|exp)
// "." hex(HMAC-SHA256 over the first part).
func Auth(secret string) ginext.HandlerFunc {
	return func(c *ginext.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			dto.AuthRequiredError(c)
			return
		}

		userID, email, err := ParseToken(secret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			zlog.Logger.Debug().Err(err).Msg("rejected bearer token")
			dto.AuthRequiredError(c)
			return
		}

		c.Set(CtxUserID, userID)
		c.Set(CtxEmail, email)
		c.Next()
	}
}

// UserID extracts the authenticated caller set by Auth.
func UserID(c *ginext.Context) (uuid.UUID, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func Email(c *ginext.Context) string {
	return c.GetString(CtxEmail)
}

func SignToken(secret string, userID uuid.UUID, email string, expiresAt time.Time) string {
	payload := base64.RawURLEncoding.EncodeToString(
		[]byte(fmt.Sprintf("%s|%s|%d", userID, email, expiresAt.Unix())),
	)
	return payload + "." + sign(secret, payload)
}

func ParseToken(secret, token string) (uuid.UUID, string, error) {
	payload, mac, ok := strings.Cut(token, ".")
	if !ok {
		return uuid.Nil, "", fmt.Errorf("malformed token")
	}
	if !hmac.Equal([]byte(sign(secret, payload)), []byte(mac)) {
		return uuid.Nil, "", fmt.Errorf("bad token signature")
	}

	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("bad token payload: %w", err)
	}
	parts := strings.Split(string(decoded), "|")
	if len(parts) != 3 {
		return uuid.Nil, "", fmt.Errorf("malformed token payload")
	}

	userID, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("bad user id in token: %w", err)
	}
	exp, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("bad expiry in token: %w", err)
	}
	if time.Now().Unix() > exp {
		return uuid.Nil, "", fmt.Errorf("token expired")
	}

	return userID, parts[1], nil
}

func sign(secret, payload string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}
