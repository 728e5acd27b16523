// Package validation checks and sanitizes raw protocol payloads before
// they reach the registry. Length, charset, and escaping rules live
// here, not in the core.
package validation

import (
	"fmt"
	"html"
	"strings"

	"github.com/go-playground/validator/v10"

	"roomcast/errors"
)

var validate = validator.New()

// MaxMessageLength caps the text of a single chat message.
const MaxMessageLength = 1000

// JoinRequest is the joinRoom payload as received from the wire.
type JoinRequest struct {
	Username string `json:"username" validate:"required,min=2,max=20"`
	Room     string `json:"room" validate:"required,min=1,max=50"`
}

// ValidateJoin trims, escapes, and checks the join payload, returning
// the sanitized values. Escaping happens before the length check so the
// registry's defensive re-check sees the exact same string.
func ValidateJoin(req JoinRequest) (JoinRequest, error) {
	req.Username = html.EscapeString(strings.TrimSpace(req.Username))
	req.Room = html.EscapeString(strings.TrimSpace(req.Room))
	if err := validate.Struct(req); err != nil {
		return JoinRequest{}, fmt.Errorf("%w: username must be 2-20 characters and room 1-50 characters", errors.ErrInvalidInput)
	}
	return req, nil
}

// ValidateMessage trims, checks, and escapes a chat message.
func ValidateMessage(text string) (string, error) {
	text = strings.TrimSpace(text)
	if err := validate.Var(text, fmt.Sprintf("required,max=%d", MaxMessageLength)); err != nil {
		return "", fmt.Errorf("%w: message must be 1-%d characters", errors.ErrInvalidInput, MaxMessageLength)
	}
	return html.EscapeString(text), nil
}
