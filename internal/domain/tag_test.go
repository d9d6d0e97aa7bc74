package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTag_Valid(t *testing.T) {
	tests := []struct {
		name string
		tag  Tag
		want bool
	}{
		{"ok", Tag{Name: "greeting", Content: "hello"}, true},
		{"single chars", Tag{Name: "a", Content: "b"}, true},
		{"empty name", Tag{Name: "", Content: "hello"}, false},
		{"name too long", Tag{Name: strings.Repeat("a", TagNameMaxLen+1), Content: "hello"}, false},
		{"empty content", Tag{Name: "greeting", Content: ""}, false},
		{"content too long", Tag{Name: "greeting", Content: strings.Repeat("x", TagContentMaxLen+1)}, false},
		{"content at limit", Tag{Name: "greeting", Content: strings.Repeat("x", TagContentMaxLen)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tag.Valid())
		})
	}
}
