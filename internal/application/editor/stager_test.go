package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	imgdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/stagedImage"
)

func primaryCount(items []imgdom.StagedImage) int {
	n := 0
	for _, it := range items {
		if it.Primary {
			n++
		}
	}
	return n
}

func TestStager_PrimaryFollowsFirstImage(t *testing.T) {
	previews := NewPreviewRegistry()
	st := NewStager(previews, imgdom.DefaultPolicy())

	_, rej := st.AddFiles([]imgdom.File{pngFile("a.png")}, imgdom.AngleFront)
	require.Empty(t, rej)
	imgs := st.Images()
	require.Len(t, imgs, 1)
	assert.True(t, imgs[0].Primary)
	assert.True(t, imgs[0].Local)
	assert.False(t, imgs[0].Persisted)

	_, rej = st.AddFiles([]imgdom.File{pngFile("b.png")}, imgdom.AngleSide)
	require.Empty(t, rej)
	imgs = st.Images()
	assert.True(t, imgs[0].Primary)
	assert.False(t, imgs[1].Primary)

	require.NoError(t, st.Remove(0))
	imgs = st.Images()
	require.Len(t, imgs, 1)
	assert.True(t, imgs[0].Primary)
	assert.Equal(t, imgdom.AngleSide, imgs[0].Angle)
	assert.Equal(t, 1, previews.Live())
}

func TestStager_AddFilesRejectsPerFile(t *testing.T) {
	st := NewStager(nil, imgdom.Policy{MaxBytes: 8})

	files := []imgdom.File{
		{Name: "ok.png", ContentType: "image/png", Data: []byte("1234")},
		{Name: "doc.pdf", ContentType: "application/pdf", Data: []byte("1234")},
		{Name: "big.jpg", ContentType: "image/jpeg", Data: []byte("0123456789")},
		{Name: "empty.png", ContentType: "image/png"},
	}
	added, rej := st.AddFiles(files, imgdom.AngleTop)

	require.Len(t, added, 1)
	assert.Equal(t, "ok.png", added[0].FileName)
	require.Len(t, rej, 3)
	assert.Equal(t, FileRejection{FileName: "doc.pdf", Reason: imgdom.ReasonInvalidFileType}, rej[0])
	assert.Equal(t, FileRejection{FileName: "big.jpg", Reason: imgdom.ReasonFileTooLarge}, rej[1])
	assert.Equal(t, FileRejection{FileName: "empty.png", Reason: imgdom.ReasonEmptyFile}, rej[2])
}

func TestStager_AddFromURL(t *testing.T) {
	st := NewStager(nil, imgdom.DefaultPolicy())

	img, err := st.AddFromURL("https://cdn.example.com/a.jpg", imgdom.AngleBack)
	require.NoError(t, err)
	assert.False(t, img.Local)
	assert.False(t, img.Persisted)
	assert.True(t, img.Primary)
	assert.Empty(t, img.PreviewHandle)

	_, err = st.AddFromURL("ftp://cdn.example.com/a.jpg", imgdom.AngleBack)
	assert.ErrorIs(t, err, imgdom.ErrInvalidURL)
	assert.Equal(t, 1, st.Len())
}

func TestStager_ReorderKeepsMetadata(t *testing.T) {
	st := NewStager(nil, imgdom.DefaultPolicy())
	st.AddFiles([]imgdom.File{pngFile("a.png")}, imgdom.AngleFront)
	st.AddFiles([]imgdom.File{pngFile("b.png")}, imgdom.AngleBack)
	st.AddFiles([]imgdom.File{pngFile("c.png")}, imgdom.AngleTop)

	require.NoError(t, st.Reorder(0, 2))
	imgs := st.Images()
	assert.Equal(t, []string{"b.png", "c.png", "a.png"}, []string{imgs[0].FileName, imgs[1].FileName, imgs[2].FileName})
	assert.True(t, imgs[2].Primary)
	assert.Equal(t, imgdom.AngleFront, imgs[2].Angle)

	assert.ErrorIs(t, st.Reorder(0, 3), imgdom.ErrIndexOutOfRange)
	assert.ErrorIs(t, st.SetAngle(0, "diagonal"), imgdom.ErrInvalidAngle)
	require.NoError(t, st.SetAngle(0, imgdom.AngleOther))
	assert.Equal(t, imgdom.AngleOther, st.Images()[0].Angle)
}

func TestStager_RemoveOnlyImage(t *testing.T) {
	previews := NewPreviewRegistry()
	st := NewStager(previews, imgdom.DefaultPolicy())
	st.AddFiles([]imgdom.File{pngFile("a.png")}, imgdom.AngleFront)

	require.NoError(t, st.Remove(0))
	assert.Zero(t, st.Len())
	assert.Zero(t, previews.Live())
	assert.ErrorIs(t, st.Remove(0), imgdom.ErrIndexOutOfRange)
}

func TestStager_RestoreDropsLocalPreviews(t *testing.T) {
	st := NewStager(nil, imgdom.DefaultPolicy())
	dropped := st.Restore([]imgdom.PreviewMeta{
		{URL: PreviewURL("gone"), Angle: imgdom.AngleFront, IsPrimary: true},
		{URL: "https://cdn.example.com/x.jpg", Angle: imgdom.AngleSide, IsExisting: true},
		{URL: "https://cdn.example.com/y.jpg", Angle: imgdom.AngleTop},
	})

	assert.Equal(t, 1, dropped)
	imgs := st.Images()
	require.Len(t, imgs, 2)
	assert.Equal(t, 1, primaryCount(imgs))
	assert.True(t, imgs[0].Primary)
	assert.True(t, imgs[0].Persisted)
	assert.False(t, imgs[1].Persisted)
	for _, it := range imgs {
		assert.False(t, it.Local)
	}
}

func TestStager_MarkUploadedReleasesPreview(t *testing.T) {
	previews := NewPreviewRegistry()
	st := NewStager(previews, imgdom.DefaultPolicy())
	added, _ := st.AddFiles([]imgdom.File{pngFile("a.png")}, imgdom.AngleFront)

	_, ok := st.Binary(added[0].ID)
	require.True(t, ok)

	require.True(t, st.MarkUploaded(added[0].ID, "https://cdn.example.com/a.png"))
	img := st.Images()[0]
	assert.True(t, img.Persisted)
	assert.False(t, img.Local)
	assert.Equal(t, "https://cdn.example.com/a.png", img.URL)
	assert.Zero(t, previews.Live())

	_, ok = st.Binary(added[0].ID)
	assert.False(t, ok)
	assert.False(t, st.MarkUploaded("missing", "x"))
}

// Every handle acquired by any operation sequence is released exactly once
// by the time the stager is torn down.
func TestStager_PreviewLifetime(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		previews := NewPreviewRegistry()
		st := NewStager(previews, imgdom.DefaultPolicy())

		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 6).Draw(t, "op") {
			case 0, 1:
				n := rapid.IntRange(1, 3).Draw(t, "files")
				files := make([]imgdom.File, n)
				for j := range files {
					files[j] = pngFile(rapid.StringMatching(`[a-z]{1,6}`).Draw(t, "name") + ".png")
				}
				st.AddFiles(files, imgdom.AngleFront)
			case 2:
				_, _ = st.AddFromURL("https://cdn.example.com/u.jpg", imgdom.AngleOther)
			case 3:
				if n := st.Len(); n > 0 {
					require.NoError(t, st.Remove(rapid.IntRange(0, n-1).Draw(t, "remove")))
				}
			case 4:
				if n := st.Len(); n > 0 {
					idx := rapid.IntRange(0, n-1).Draw(t, "upload")
					st.MarkUploaded(st.Images()[idx].ID, "https://cdn.example.com/done.png")
				}
			case 5:
				if n := st.Len(); n > 0 {
					require.NoError(t, st.Reorder(rapid.IntRange(0, n-1).Draw(t, "from"), rapid.IntRange(0, n-1).Draw(t, "to")))
				}
			case 6:
				if rapid.Bool().Draw(t, "clear") {
					st.ClearAll()
				}
			}

			local := 0
			for _, it := range st.Images() {
				if it.Local {
					local++
				}
			}
			require.Equal(t, local, previews.Live())
		}

		st.Teardown()
		require.Zero(t, previews.Live())
		require.Zero(t, previews.DoubleReleases())
	})
}

func TestStager_ExactlyOnePrimary(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		st := NewStager(nil, imgdom.DefaultPolicy())

		steps := rapid.IntRange(1, 50).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			n := st.Len()
			switch rapid.IntRange(0, 4).Draw(t, "op") {
			case 0:
				st.AddFiles([]imgdom.File{pngFile("f.png")}, imgdom.AngleFront)
			case 1:
				_, _ = st.AddFromURL("https://cdn.example.com/u.jpg", imgdom.AngleSide)
			case 2:
				if n > 0 {
					idx := rapid.IntRange(0, n-1).Draw(t, "remove")
					wasPrimary := st.Images()[idx].Primary
					require.NoError(t, st.Remove(idx))
					if wasPrimary && n > 1 {
						require.True(t, st.Images()[0].Primary)
					}
				}
			case 3:
				if n > 0 {
					idx := rapid.IntRange(0, n-1).Draw(t, "primary")
					require.NoError(t, st.SetPrimary(idx))
					require.True(t, st.Images()[idx].Primary)
				}
			case 4:
				if n > 0 {
					require.NoError(t, st.Reorder(rapid.IntRange(0, n-1).Draw(t, "from"), rapid.IntRange(0, n-1).Draw(t, "to")))
				}
			}

			imgs := st.Images()
			if len(imgs) == 0 {
				require.Zero(t, primaryCount(imgs))
			} else {
				require.Equal(t, 1, primaryCount(imgs))
			}
		}
		st.Teardown()
	})
}
