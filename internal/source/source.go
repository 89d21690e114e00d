package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/taskboard/internal/model"
)

// AuthError indicates that authentication has failed or expired for a source.
type AuthError struct {
	SourceType SourceType
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.SourceType, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// SourceType identifies the kind of notification provider.
type SourceType string

const (
	SourceTypeDatabase SourceType = "database"
	SourceTypeEmail    SourceType = "email"
	SourceTypeRedis    SourceType = "redis"
)

// Source defines the contract that every notification provider implements.
//
// Fetch returns only notifications the source has not returned before; each
// source keeps its own cursor so a notification cleared from the dropdown is
// not delivered again.
type Source interface {
	// Type returns the source type identifier.
	Type() SourceType

	// ValidateConnection verifies credentials and connectivity. The poller
	// calls it before the first fetch and again after an auth failure.
	// Returns a human-readable status message on success.
	ValidateConnection(ctx context.Context) (string, error)

	// Fetch retrieves notifications that arrived since the previous call.
	Fetch(ctx context.Context) ([]model.Notification, error)
}

// Closer is implemented by sources that hold connections open between
// fetches.
type Closer interface {
	Close() error
}
