package model

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/chronosatlas/helper"
)

// Cursor is the position after the last row of a page. Which key fields are
// set depends on the ordering.
type Cursor struct {
	Ordering string     `json:"o"`
	Year     *int       `json:"y,omitempty"`
	Text     *string    `json:"t,omitempty"`
	Time     *time.Time `json:"c,omitempty"`
	ID       uuid.UUID  `json:"i"`
}

// FigureCursor returns the cursor positioned on f.
func FigureCursor(ordering string, f *Figure) Cursor {
	c := Cursor{Ordering: ordering, ID: f.ID, Text: &f.Name}
	if ordering == OrderBirthYear || ordering == OrderBirthYearDesc {
		year := f.NormalizedBirthYear
		c.Year = &year
	}
	return c
}

// TimelineEventCursor returns the cursor positioned on e.
func TimelineEventCursor(ordering string, e *TimelineEvent) Cursor {
	c := Cursor{Ordering: ordering, ID: e.ID, Text: &e.Title}
	if ordering == OrderYear || ordering == OrderYearDesc {
		year := e.Year
		c.Year = &year
	}
	return c
}

// InfluenceCursor returns the cursor positioned on i.
func InfluenceCursor(i *Influence) Cursor {
	createdAt := i.CreatedAt
	return Cursor{Ordering: OrderCreatedAt, ID: i.ID, Time: &createdAt}
}

// CursorCodec signs and verifies opaque pagination cursors with HMAC-SHA256.
type CursorCodec struct {
	key []byte
}

// NewCursorCodec creates a codec signing with secret.
func NewCursorCodec(secret string) *CursorCodec {
	return &CursorCodec{key: []byte(secret)}
}

// Encode serializes c as base64url(json) "." base64url(hmac).
func (c *CursorCodec) Encode(cursor Cursor) (string, error) {
	payload, err := json.Marshal(cursor)
	if err != nil {
		return "", helper.NewError("marshal cursor", err)
	}
	return base64.RawURLEncoding.EncodeToString(payload) + "." + base64.RawURLEncoding.EncodeToString(c.sign(payload)), nil
}

// Decode verifies token and checks it was produced under ordering.
// An empty token returns nil.
func (c *CursorCodec) Decode(token string, ordering string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}

	encodedPayload, encodedSignature, ok := strings.Cut(token, ".")
	if !ok {
		return nil, helper.NewValidationError("after", "malformed cursor")
	}
	payload, err := base64.RawURLEncoding.DecodeString(encodedPayload)
	if err != nil {
		return nil, helper.NewValidationError("after", "malformed cursor")
	}
	signature, err := base64.RawURLEncoding.DecodeString(encodedSignature)
	if err != nil {
		return nil, helper.NewValidationError("after", "malformed cursor")
	}
	if !hmac.Equal(signature, c.sign(payload)) {
		return nil, helper.NewValidationError("after", "invalid cursor signature")
	}

	cursor := &Cursor{}
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cursor); err != nil {
		return nil, helper.NewValidationError("after", "malformed cursor")
	}
	if cursor.Ordering != ordering {
		return nil, helper.NewValidationError("after", "cursor was issued for ordering %q, not %q", cursor.Ordering, ordering)
	}
	return cursor, nil
}

func (c *CursorCodec) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, c.key)
	mac.Write(payload)
	return mac.Sum(nil)
}
