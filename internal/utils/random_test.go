package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoginToken(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		tok := NewLoginToken()
		assert.Len(t, tok, 64)
		for _, c := range tok {
			assert.True(t, strings.ContainsRune(loginTokenChars, c), "unexpected character %q", c)
		}
		assert.False(t, seen[tok], "token repeated")
		seen[tok] = true
	}
}

func TestNewMailToken(t *testing.T) {
	tok := NewMailToken()
	assert.Len(t, tok, 20)
	for _, c := range tok {
		assert.True(t, strings.ContainsRune(mailTokenChars, c), "unexpected character %q", c)
	}
}
