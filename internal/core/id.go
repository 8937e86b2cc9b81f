package core

import (
	"github.com/google/uuid"
)

// NewID returns a new random identifier for debates, calls and runs.
func NewID() string {
	return uuid.NewString()
}

// ShortID returns the leading segment of an id, used in filenames and
// terminal output.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
