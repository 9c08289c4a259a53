// Package token issues the one-time tokens embedded in account verification
// links. A token is an expiry plus an HMAC over the user's id, email and
// active flag: flipping is_active (i.e. completing verification) invalidates
// every outstanding token for that user without any server-side state.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mjajones/notifiq-app/internal/models"
)

type Generator struct {
	secret []byte
	ttl    time.Duration
}

func NewGenerator(secret string, ttl time.Duration) *Generator {
	return &Generator{secret: []byte(secret), ttl: ttl}
}

// Make returns a token of the form "<expiry-base36>-<hmac-hex>".
func (g *Generator) Make(u *models.User) string {
	exp := time.Now().Add(g.ttl).Unix()
	return strconv.FormatInt(exp, 36) + "-" + g.sign(u, exp)
}

// Check reports whether tok is a valid, unexpired token for the user's
// current state. Any malformed input is simply invalid.
func (g *Generator) Check(u *models.User, tok string) bool {
	if u == nil {
		return false
	}
	part, mac, ok := strings.Cut(tok, "-")
	if !ok {
		return false
	}
	exp, err := strconv.ParseInt(part, 36, 64)
	if err != nil {
		return false
	}
	if time.Now().Unix() > exp {
		return false
	}
	return hmac.Equal([]byte(mac), []byte(g.sign(u, exp)))
}

func (g *Generator) sign(u *models.User, exp int64) string {
	h := hmac.New(sha256.New, g.secret)
	fmt.Fprintf(h, "%s|%s|%t|%d", u.ID, u.Email, u.IsActive, exp)
	return hex.EncodeToString(h.Sum(nil))
}
