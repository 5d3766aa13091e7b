package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/streamnest/community-api/internal/repository"
)

// Sentinel errors surfaced by the engagement and moderation services.
// Handlers match with errors.Is and map them onto HTTP status codes.
var (
	// ErrNotFound reports an operation on a record that is semantically
	// required to exist. Progression treats absent records as the initial
	// state, so this mostly surfaces from read-only projections.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument reports a request that fails domain validation,
	// e.g. a non-positive timeout duration or an unknown activity type.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConflict reports that the bounded optimistic-retry budget was
	// exhausted by concurrent writers. The caller retries the whole
	// operation; partial state is never merged.
	ErrConflict = errors.New("conflict")

	// ErrStorageUnavailable reports that the persistence layer failed.
	// Never swallowed: a mutation that hit this error was not applied.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// translateStorageError maps persistence failures onto the service error
// taxonomy, preserving the underlying cause in the chain.
func translateStorageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, err)
	case errors.Is(err, repository.ErrVersionConflict):
		return fmt.Errorf("%w: %s", ErrConflict, err)
	default:
		return fmt.Errorf("%w: %s", ErrStorageUnavailable, err)
	}
}
