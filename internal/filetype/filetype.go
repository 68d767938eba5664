// Package filetype maps file names and loc type tags to display languages.
package filetype

import (
	"path/filepath"
	"strings"

	"github.com/src-d/enry/v2"
)

// FromFile returns the type tag for a file name: its extension without the dot,
// lower-cased. Files without an extension get their base name (e.g. "Makefile").
func FromFile(name string) string {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return filepath.Base(name)
	}
	return strings.ToLower(ext)
}

// Language returns the linguist language name for a type tag,
// or the tag itself when enry does not recognise it.
func Language(typ string) string {
	if typ == "" {
		return ""
	}
	lang, _ := enry.GetLanguageByExtension("file." + typ)
	if lang == "" {
		return typ
	}
	return lang
}
