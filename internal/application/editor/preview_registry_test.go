package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewRegistry_ReleaseExactlyOnce(t *testing.T) {
	r := NewPreviewRegistry()
	h := r.Acquire(pngFile("a.png"))
	assert.Equal(t, 1, r.Live())

	f, ok := r.Get(h)
	require.True(t, ok)
	assert.Equal(t, "a.png", f.Name)

	require.NoError(t, r.Release(h))
	assert.ErrorIs(t, r.Release(h), ErrAlreadyReleased)
	assert.Equal(t, 1, r.DoubleReleases())
	assert.ErrorIs(t, r.Release("never-issued"), ErrUnknownPreview)

	_, ok = r.Get(h)
	assert.False(t, ok)
}

func TestPreviewRegistry_ReleaseAll(t *testing.T) {
	r := NewPreviewRegistry()
	a := r.Acquire(pngFile("a.png"))
	r.Acquire(pngFile("b.png"))

	assert.Equal(t, 2, r.ReleaseAll())
	assert.Zero(t, r.Live())
	assert.ErrorIs(t, r.Release(a), ErrAlreadyReleased)
}

func TestPreviewRegistry_ReleasedSetIsBounded(t *testing.T) {
	r := NewPreviewRegistry()
	r.releasedCap = 3

	handles := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		h := r.Acquire(pngFile("x.png"))
		require.NoError(t, r.Release(h))
		handles = append(handles, h)
	}

	assert.Len(t, r.released, 3)
	assert.Len(t, r.releasedOrder, 3)
	// recent handles still report a double release
	assert.ErrorIs(t, r.Release(handles[4]), ErrAlreadyReleased)
	// the oldest ones are forgotten
	assert.ErrorIs(t, r.Release(handles[0]), ErrUnknownPreview)
	assert.Equal(t, 1, r.DoubleReleases())
}

func TestPreviewHandleFromURL(t *testing.T) {
	h, ok := PreviewHandleFromURL(PreviewURL("abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", h)

	_, ok = PreviewHandleFromURL("https://cdn.example.com/product-editor/previews/abc")
	assert.False(t, ok)
	_, ok = PreviewHandleFromURL(PreviewPathPrefix)
	assert.False(t, ok)
}
