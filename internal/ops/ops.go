package ops

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/suhba/internal/errors"
)

// Result limits
const (
	MaxMatchLimit   = 100
	MaxFeedLimit    = 200
	MaxMessageChars = 500
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// newID generates a new ULID.
func newID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// requireID trims an id field and rejects it when empty.
func requireID(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.NewInvalidRequest(field + " is required")
	}
	return value, nil
}

// clampLimit keeps a requested limit within [0, maxLimit]. Zero means
// "use the default".
func clampLimit(limit, maxLimit int) (int, error) {
	if limit < 0 {
		return 0, errors.NewInvalidRequest("limit must not be negative")
	}
	return min(limit, maxLimit), nil
}
