package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"

	"github.com/geocoder89/yardsale/internal/domain/event"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// EncodeEventCursor renders a listing position as an opaque URL-safe token.
func EncodeEventCursor(c event.Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeEventCursor(cursor string) (event.Cursor, error) {
	if cursor == "" {
		return event.Cursor{}, ErrInvalidCursor
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return event.Cursor{}, ErrInvalidCursor
	}

	var c event.Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return event.Cursor{}, ErrInvalidCursor
	}
	if c.ID == "" || c.StartDate.IsZero() {
		return event.Cursor{}, ErrInvalidCursor
	}
	return c, nil
}
