// Package report renders scan results as line-oriented text: one four-glyph
// risk row per repository, optionally followed by verbose detail sections.
package report
