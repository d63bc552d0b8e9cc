package app

import (
	"strings"

	"jobflow/internal/domain/application"
)

// Per-language fallbacks used when a record or request leaves a field blank.
var (
	placeholderCompany = map[application.Language]string{
		application.LanguageEN: "your company",
		application.LanguageFR: "votre entreprise",
	}
	defaultPosition = map[application.Language]string{
		application.LanguageEN: "Software Developer",
		application.LanguageFR: "Développeur",
	}
	defaultCV = map[application.Language]string{
		application.LanguageEN: "cv_en.pdf",
		application.LanguageFR: "cv_fr.pdf",
	}
	followupSubjectFallback = "Follow-up"
)

// substitutePlaceholders fills [Company] and [Position] in template text,
// falling back to language defaults when the record leaves them blank.
func substitutePlaceholders(text, company, position string, lang application.Language) string {
	if strings.TrimSpace(company) == "" {
		company = placeholderCompany[lang]
	}
	if strings.TrimSpace(position) == "" {
		position = defaultPosition[lang]
	}
	text = strings.ReplaceAll(text, "[Company]", company)
	return strings.ReplaceAll(text, "[Position]", position)
}

// partitionLanguages maps a partition selector to the languages it covers.
func partitionLanguages(partition string) ([]application.Language, bool) {
	switch partition {
	case "en":
		return []application.Language{application.LanguageEN}, true
	case "fr":
		return []application.Language{application.LanguageFR}, true
	case "both", "":
		return []application.Language{application.LanguageEN, application.LanguageFR}, true
	default:
		return nil, false
	}
}
