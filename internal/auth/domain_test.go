package auth

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserIDPrefersPrimaryClaim(t *testing.T) {
	id := &Identity{Subject: "9", Claims: map[string]any{"user_id": "7", "sub": "9"}}
	got, ok := id.UserID("user_id")
	assert.True(t, ok)
	assert.Equal(t, int64(7), got)
}

func TestUserIDFallsBackToSubject(t *testing.T) {
	id := &Identity{Claims: map[string]any{"sub": "12"}}
	got, ok := id.UserID("user_id")
	assert.True(t, ok)
	assert.Equal(t, int64(12), got)
}

func TestUserIDFallsBackWhenPrimaryUnparsable(t *testing.T) {
	id := &Identity{Claims: map[string]any{"user_id": "abc", "sub": "5"}}
	got, ok := id.UserID("user_id")
	assert.True(t, ok)
	assert.Equal(t, int64(5), got)
}

func TestUserIDAcceptsNumericClaims(t *testing.T) {
	id := &Identity{Claims: map[string]any{"user_id": float64(42)}}
	got, ok := id.UserID("user_id")
	assert.True(t, ok)
	assert.Equal(t, int64(42), got)

	id = &Identity{Claims: map[string]any{"user_id": json.Number("43")}}
	got, ok = id.UserID("user_id")
	assert.True(t, ok)
	assert.Equal(t, int64(43), got)
}

func TestUserIDMissing(t *testing.T) {
	for _, id := range []*Identity{
		nil,
		{Claims: map[string]any{}},
		{Subject: "devotee@example.org", Claims: map[string]any{"sub": "devotee@example.org"}},
		{Claims: map[string]any{"user_id": 1.5}},
	} {
		_, ok := id.UserID("user_id")
		assert.False(t, ok)
	}
}
