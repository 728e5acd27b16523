package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"roomcast/errors"
)

func TestValidateJoin(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		name     string
		input    JoinRequest
		expected JoinRequest
		wantErr  bool
	}{
		{
			name:     "Valid request passes through unchanged",
			input:    JoinRequest{Username: "bob", Room: "general"},
			expected: JoinRequest{Username: "bob", Room: "general"},
		},
		{
			name:     "Surrounding whitespace is trimmed",
			input:    JoinRequest{Username: "  bob  ", Room: " general "},
			expected: JoinRequest{Username: "bob", Room: "general"},
		},
		{
			name:     "Markup is escaped before the length check",
			input:    JoinRequest{Username: "<b>", Room: "general"},
			expected: JoinRequest{Username: "&lt;b&gt;", Room: "general"},
		},
		{
			name:    "Username too short",
			input:   JoinRequest{Username: "a", Room: "general"},
			wantErr: true,
		},
		{
			name:    "Username empty after trim",
			input:   JoinRequest{Username: "   ", Room: "general"},
			wantErr: true,
		},
		{
			name:    "Username too long",
			input:   JoinRequest{Username: strings.Repeat("u", 21), Room: "general"},
			wantErr: true,
		},
		{
			name:    "Room missing",
			input:   JoinRequest{Username: "bob", Room: ""},
			wantErr: true,
		},
		{
			name:    "Room too long",
			input:   JoinRequest{Username: "bob", Room: strings.Repeat("r", 51)},
			wantErr: true,
		},
		{
			name:     "Boundary lengths accepted",
			input:    JoinRequest{Username: strings.Repeat("u", 20), Room: strings.Repeat("r", 50)},
			expected: JoinRequest{Username: strings.Repeat("u", 20), Room: strings.Repeat("r", 50)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateJoin(tt.input)

			if tt.wantErr {
				req.ErrorIs(err, errors.ErrInvalidInput)
				return
			}
			req.NoError(err)
			req.Equal(tt.expected, got)
		})
	}
}

func TestValidateMessage(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{
			name:     "Plain text passes through",
			input:    "hello world",
			expected: "hello world",
		},
		{
			name:     "Whitespace is trimmed",
			input:    "  hello  ",
			expected: "hello",
		},
		{
			name:     "Markup is escaped",
			input:    "<script>alert('hi')</script>",
			expected: "&lt;script&gt;alert(&#39;hi&#39;)&lt;/script&gt;",
		},
		{
			name:    "Empty message rejected",
			input:   "",
			wantErr: true,
		},
		{
			name:    "Blank message rejected",
			input:   "   ",
			wantErr: true,
		},
		{
			name:    "Over the length cap rejected",
			input:   strings.Repeat("m", MaxMessageLength+1),
			wantErr: true,
		},
		{
			name:     "Exactly at the cap accepted",
			input:    strings.Repeat("m", MaxMessageLength),
			expected: strings.Repeat("m", MaxMessageLength),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateMessage(tt.input)

			if tt.wantErr {
				req.ErrorIs(err, errors.ErrInvalidInput)
				return
			}
			req.NoError(err)
			req.Equal(tt.expected, got)
		})
	}
}
