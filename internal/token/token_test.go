package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mjajones/notifiq-app/internal/models"
)

func TestGenerator(t *testing.T) {
	g := NewGenerator("s3cret", time.Hour)
	u := &models.User{ID: "u-1", Email: "u@corp.test"}

	t.Run("round trip", func(t *testing.T) {
		assert.True(t, g.Check(u, g.Make(u)))
	})

	t.Run("tampered token fails", func(t *testing.T) {
		tok := g.Make(u)
		assert.False(t, g.Check(u, tok+"x"))
		assert.False(t, g.Check(u, strings.Replace(tok, "-", "_", 1)))
		assert.False(t, g.Check(u, ""))
	})

	t.Run("wrong secret fails", func(t *testing.T) {
		other := NewGenerator("different", time.Hour)
		assert.False(t, other.Check(u, g.Make(u)))
	})

	t.Run("wrong user fails", func(t *testing.T) {
		tok := g.Make(u)
		assert.False(t, g.Check(&models.User{ID: "u-2", Email: "u@corp.test"}, tok))
	})

	t.Run("expired token fails", func(t *testing.T) {
		expired := NewGenerator("s3cret", -time.Minute)
		assert.False(t, g.Check(u, expired.Make(u)))
	})

	t.Run("activation invalidates outstanding tokens", func(t *testing.T) {
		tok := g.Make(u)
		activated := *u
		activated.IsActive = true
		assert.False(t, g.Check(&activated, tok))
	})

	t.Run("nil user is invalid", func(t *testing.T) {
		assert.False(t, g.Check(nil, g.Make(u)))
	})
}
