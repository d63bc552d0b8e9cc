package attachments

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobflow/internal/domain/application"
)

func newTestResolver(t *testing.T) *FolderResolver {
	t.Helper()
	en := t.TempDir()
	fr := t.TempDir()
	for _, f := range []string{"cv_en.pdf", "Cover_Letter.docx", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(en, f), []byte("x"), 0o600))
	}
	require.NoError(t, os.WriteFile(filepath.Join(fr, "cv_fr.pdf"), []byte("x"), 0o600))
	return NewFolderResolver(en, fr)
}

func TestResolveExactAndCaseInsensitive(t *testing.T) {
	r := newTestResolver(t)

	path, ok := r.Resolve(application.LanguageEN, "cv_en.pdf")
	require.True(t, ok)
	assert.Equal(t, "cv_en.pdf", filepath.Base(path))

	path, ok = r.Resolve(application.LanguageEN, "CV_EN.PDF")
	require.True(t, ok)
	assert.Equal(t, "cv_en.pdf", filepath.Base(path))
}

func TestResolveBareStem(t *testing.T) {
	r := newTestResolver(t)

	path, ok := r.Resolve(application.LanguageEN, "cover_letter")
	require.True(t, ok)
	assert.Equal(t, "Cover_Letter.docx", filepath.Base(path))
}

func TestResolveMissesWrongLanguageAndUnknownName(t *testing.T) {
	r := newTestResolver(t)

	_, ok := r.Resolve(application.LanguageFR, "cv_en.pdf")
	assert.False(t, ok)

	_, ok = r.Resolve(application.LanguageEN, "does_not_exist.pdf")
	assert.False(t, ok)

	_, ok = r.Resolve(application.LanguageEN, "")
	assert.False(t, ok)
}

func TestListFiltersAndSorts(t *testing.T) {
	r := newTestResolver(t)

	infos, err := r.List(application.LanguageEN)
	require.NoError(t, err)
	require.Len(t, infos, 2, "non-document files are excluded")
	assert.Equal(t, "Cover_Letter.docx", infos[0].Name)
	assert.Equal(t, "cv_en.pdf", infos[1].Name)
}

func TestListMissingFolder(t *testing.T) {
	r := NewFolderResolver(filepath.Join(t.TempDir(), "nope"), "")

	_, err := r.List(application.LanguageEN)
	assert.Error(t, err)

	_, err = r.List(application.LanguageFR)
	assert.Error(t, err)
}
