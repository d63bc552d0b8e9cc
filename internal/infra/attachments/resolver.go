// Package attachments resolves CV files stored in language-scoped folders.
package attachments

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"jobflow/internal/domain/application"
	"jobflow/internal/domain/attachment"
)

// Extensions eligible as CV attachments.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".doc":  true,
	".rtf":  true,
}

// FolderResolver implements attachment.Resolver over plain directories, one
// per language.
type FolderResolver struct {
	folders map[application.Language]string
}

func NewFolderResolver(folderEN, folderFR string) *FolderResolver {
	return &FolderResolver{
		folders: map[application.Language]string{
			application.LanguageEN: folderEN,
			application.LanguageFR: folderFR,
		},
	}
}

// Resolve matches filename against the language folder. Matching is
// case-insensitive and accepts the bare stem, so "cv_en", "CV_EN.pdf" and
// "cv_en.PDF" all resolve to the same file.
func (r *FolderResolver) Resolve(lang application.Language, filename string) (string, bool) {
	if strings.TrimSpace(filename) == "" {
		return "", false
	}
	infos, err := r.List(lang)
	if err != nil {
		return "", false
	}

	want := strings.ToLower(filename)
	wantStem := strings.TrimSuffix(want, filepath.Ext(want))
	for _, info := range infos {
		name := strings.ToLower(info.Name)
		if name == want {
			return info.Path, true
		}
		if strings.TrimSuffix(name, filepath.Ext(name)) == wantStem && filepath.Ext(want) == "" {
			return info.Path, true
		}
	}
	return "", false
}

// List returns the attachments available for a language, sorted by name.
func (r *FolderResolver) List(lang application.Language) ([]attachment.Info, error) {
	folder, ok := r.folders[lang]
	if !ok || folder == "" {
		return nil, fmt.Errorf("no attachment folder configured for language %s", lang)
	}
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("read attachment folder %s: %w", folder, err)
	}

	infos := make([]attachment.Info, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !allowedExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, attachment.Info{
			Name: entry.Name(),
			Path: filepath.Join(folder, entry.Name()),
			Size: fi.Size(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}
