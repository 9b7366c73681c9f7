package utils

import (
	"github.com/google/uuid"
)

// GenerateRequestID returns a random identifier used to correlate log lines
// of a single request.
func GenerateRequestID() string {
	return uuid.NewString()
}
