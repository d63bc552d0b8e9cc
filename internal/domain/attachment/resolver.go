package attachment

import "jobflow/internal/domain/application"

// Info describes one available attachment file.
type Info struct {
	Name string
	Path string
	Size int64
}

// Resolver locates CV attachments inside language-scoped folders.
type Resolver interface {
	// Resolve returns the filesystem path for a stored attachment
	// reference. Matching is case-insensitive and accepts the bare stem
	// (filename without extension). ok is false when nothing matches.
	Resolve(lang application.Language, filename string) (path string, ok bool)

	// List returns the available attachments for a language, sorted by name.
	List(lang application.Language) ([]Info, error)
}
