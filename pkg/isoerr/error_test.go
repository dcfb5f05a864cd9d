package isoerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	assert.Contains(t, New(KindParse, "bad record").Error(), "bad record")
	assert.Contains(t, ShortRead(10).Error(), "got 10")
	assert.Contains(t, Newf(KindParseInt, "bad value %d", 7).Error(), "bad value 7")
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("boom")
	wrapped := Wrap(KindIO, cause)
	assert.Equal(t, cause, wrapped.Unwrap())
	assert.True(t, errors.Is(wrapped, cause))
}

func TestIsChecksKindThroughChain(t *testing.T) {
	inner := New(KindParse, "inner")
	outer := &Error{Kind: KindInvalidFS, Cause: inner}
	assert.True(t, Is(outer, KindInvalidFS))
	assert.True(t, Is(outer, KindParse))
	assert.False(t, Is(outer, KindIO))
}
