package story

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrGenerate marks an upstream provider call that failed after any
	// built-in retry policy; nothing was stored.
	ErrGenerate = errors.New("failed to analyze image")
	// ErrGeneratorUnavailable marks a deployment running without provider
	// credentials.
	ErrGeneratorUnavailable = errors.New("narrative generator unavailable")
)

// ValidationError marks client-caused failures that map to a 4xx response and
// are never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// readAllLimited reads at most limit bytes and rejects larger bodies instead
// of truncating them.
func readAllLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, &ValidationError{Reason: fmt.Sprintf("image exceeds the %d byte limit", limit)}
	}
	return data, nil
}
