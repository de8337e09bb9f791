package apperr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCarriesKindAndMessage(t *testing.T) {
	err := New(InvalidInput, "bad sample rate")

	assert.Equal(t, InvalidInput, err.Kind)
	assert.Contains(t, err.Error(), "bad sample rate")
	assert.Contains(t, err.Error(), string(InvalidInput))
}

func TestWrapPreservesKindAndCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(IndexUnavailable, "writing fingerprints", cause)

	assert.Equal(t, IndexUnavailable, err.Kind)
	assert.Contains(t, err.Error(), "disk full")
}

func TestWrapWithNilCauseBehavesLikeNew(t *testing.T) {
	err := Wrap(NotFound, "no such track", nil)
	assert.Equal(t, NotFound, err.Kind)
}

// A sentinel wrapped at a store boundary must still be reachable by
// errors.Is after crossing into an *Error of an unrelated Kind — this
// is what lets the matcher recognize a context.DeadlineExceeded even
// after a lower layer has already wrapped it as IndexUnavailable.
func TestWrapPreservesSentinelThroughUnwrap(t *testing.T) {
	err := Wrap(IndexUnavailable, "hash lookup failed", context.DeadlineExceeded)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestIsMatchesWrappedKind(t *testing.T) {
	err := New(DuplicateTrack, "already ingested")
	assert.True(t, Is(err, DuplicateTrack))
	assert.False(t, Is(err, NotFound))
}

func TestIsFalseForPlainError(t *testing.T) {
	assert.False(t, Is(errors.New("plain"), InvalidInput))
}

func TestKindOfDefaultsToInternalNumericForForeignErrors(t *testing.T) {
	assert.Equal(t, InternalNumeric, KindOf(errors.New("panic recovered")))
}

func TestKindOfExtractsWrappedKind(t *testing.T) {
	err := New(Timeout, "query deadline")
	assert.Equal(t, Timeout, KindOf(err))
}
