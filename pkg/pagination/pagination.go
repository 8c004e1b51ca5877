// Package pagination implements the keyset cursors behind the storefront
// product list and the admin order list. A cursor pins the created_at and
// id of the last row served, so new rows landing between requests never
// shift the page the way an offset would.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit is the page size when a listing omits ?limit.
	DefaultLimit = 25
	// MaxLimit caps a single page; larger requests are clamped, not
	// rejected.
	MaxLimit = 100
)

// Params carries the limit and opaque cursor from a listing request.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor is the decoded position: the (created_at, id) pair of the last
// row on the previous page. The id breaks ties between rows created in
// the same instant.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// NormalizeLimit clamps a requested limit into [1, MaxLimit], falling
// back to DefaultLimit when none was given.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer is the normalized limit plus one sentinel row. Repos
// fetch the extra row to learn whether a next page exists without a
// second count query.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// EncodeCursor packs a position into the opaque string handed to clients.
// URL-safe base64 so the cursor survives a query string untouched.
func EncodeCursor(cursor Cursor) string {
	payload := fmt.Sprintf("%s|%s", cursor.CreatedAt.UTC().Format(time.RFC3339Nano), cursor.ID.String())
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor reverses EncodeCursor. An empty value means the first page
// and decodes to nil; anything else malformed is an error, since a bad
// cursor usually signals a truncated copy-paste rather than a fresh start.
func ParseCursor(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	stamp, rawID, ok := strings.Cut(string(decoded), "|")
	if !ok {
		return nil, fmt.Errorf("invalid cursor format")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor id: %w", err)
	}
	return &Cursor{CreatedAt: createdAt, ID: id}, nil
}
