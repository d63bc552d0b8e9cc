package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobflow/internal/domain/application"
)

func TestNewManagerSeedsDefaults(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	for _, category := range []string{CategoryApplication, CategoryFollowup} {
		for _, lang := range []application.Language{application.LanguageEN, application.LanguageFR} {
			list := m.List(category, lang)
			require.NotEmpty(t, list, "%s/%s has a default template", category, lang)
			assert.Contains(t, list[0].Body, "[Company]")
		}
	}
}

func TestSaveGetDeleteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)

	tpl := Template{Name: "short", Subject: "Quick note for [Company]", Body: "Hello [Company]"}
	require.NoError(t, m.Save(CategoryFollowup, application.LanguageEN, tpl))

	got, err := m.Get(CategoryFollowup, application.LanguageEN, "short")
	require.NoError(t, err)
	assert.Equal(t, tpl, got)

	// Saving the same name replaces, not duplicates.
	tpl.Body = "Updated"
	require.NoError(t, m.Save(CategoryFollowup, application.LanguageEN, tpl))
	list := m.List(CategoryFollowup, application.LanguageEN)
	count := 0
	for _, item := range list {
		if item.Name == "short" {
			count++
			assert.Equal(t, "Updated", item.Body)
		}
	}
	assert.Equal(t, 1, count)

	// Mutations survive a reload.
	reopened, err := NewManager(dir)
	require.NoError(t, err)
	_, err = reopened.Get(CategoryFollowup, application.LanguageEN, "short")
	assert.NoError(t, err)

	require.NoError(t, m.Delete(CategoryFollowup, application.LanguageEN, "short"))
	_, err = m.Get(CategoryFollowup, application.LanguageEN, "short")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestSaveRequiresName(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, m.Save(CategoryApplication, application.LanguageEN, Template{Subject: "x"}))
}

func TestDeleteUnknownTemplate(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	err = m.Delete(CategoryApplication, application.LanguageEN, "nope")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}
