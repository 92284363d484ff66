package poster

import (
	"testing"

	"github.com/hupe1980/poster/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBodyCache_NotPersisted(t *testing.T) {
	s := NewSession(WithCache(cache.NewLRU(0, nil)))
	b := reclaimableBody(s, bodyIDs.Add(1))

	b.install(t.Context(), "dropped")
	_, err := b.get(t.Context())
	assert.ErrorIs(t, err, ErrNotPersisted)
}

func TestBodyCache_Resident(t *testing.T) {
	b := residentBody(nil, "x")
	b.reclaim()
	text, err := b.get(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "x", text)

	b.install(t.Context(), "y")
	text, err = b.get(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "y", text)
}

func TestRetention_String(t *testing.T) {
	assert.Equal(t, "resident", Resident.String())
	assert.Equal(t, "reclaimable", Reclaimable.String())
	assert.Equal(t, "Retention(7)", Retention(7).String())
}

func TestPathError(t *testing.T) {
	err := &PathError{Op: "save", Path: "a.poster", Err: ErrIO}
	assert.Equal(t, "save a.poster: i/o failure", err.Error())
	assert.ErrorIs(t, err, ErrIO)

	err = &PathError{Op: "parse", Err: ErrCorruptData}
	assert.Equal(t, "parse: corrupt data", err.Error())
}
