package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/driftworks/unshipped/internal/refs"
)

const (
	aheadGlyphConstant                 = "P"
	referencesGlyphConstant            = "R"
	modifiedGlyphConstant              = "M"
	untrackedGlyphConstant             = "U"
	absentGlyphConstant                = " "
	referenceSectionHeaderConstant     = "  unpushed references:"
	changedSectionHeaderConstant       = "  changed files:"
	untrackedSectionHeaderConstant     = "  untracked files:"
	fetchSectionHeaderConstant         = "  fetch output:"
	pullSectionHeaderConstant          = "  pull output:"
	statusSectionHeaderConstant        = "  status:"
	sectionItemIndentConstant          = "    "
	tagItemPrefixConstant              = "tag: "
	writerNotConfiguredMessageConstant = "report renderer requires an output writer"
)

// Terminal colors follow the conventional ANSI palette.
const (
	aheadColorConstant      = "1" // red
	referencesColorConstant = "5" // magenta
	modifiedColorConstant   = "3" // yellow
	untrackedColorConstant  = "6" // cyan
)

// ErrWriterNotConfigured reports a renderer constructed without an output writer.
var ErrWriterNotConfigured = errors.New(writerNotConfiguredMessageConstant)

// Record carries everything the renderer may print for one repository.
type Record struct {
	RepositoryPath     string
	AheadOfUpstream    bool
	UnpushedReferences bool
	UncommittedChanges bool
	UntrackedFiles     bool
	ReferenceList      []refs.ReferenceDescriptor
	ChangedFileList    []string
	UntrackedFileList  []string
	FetchOutput        string
	PullOutput         string
	StatusText         string
}

// RendererOptions fixes the presentation choices for one scan invocation.
type RendererOptions struct {
	ColorEnabled bool
	Verbose      bool
	VeryVerbose  bool
}

// Renderer writes repository records to a single output writer. Each record
// is built in memory and emitted with one write so records never interleave
// partially with other output.
type Renderer struct {
	outputWriter    io.Writer
	options         RendererOptions
	aheadStyle      lipgloss.Style
	referencesStyle lipgloss.Style
	modifiedStyle   lipgloss.Style
	untrackedStyle  lipgloss.Style
}

// NewRenderer constructs a Renderer targeting the provided writer.
func NewRenderer(outputWriter io.Writer, options RendererOptions) (*Renderer, error) {
	if outputWriter == nil {
		return nil, ErrWriterNotConfigured
	}
	return &Renderer{
		outputWriter:    outputWriter,
		options:         options,
		aheadStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color(aheadColorConstant)),
		referencesStyle: lipgloss.NewStyle().Foreground(lipgloss.Color(referencesColorConstant)),
		modifiedStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color(modifiedColorConstant)),
		untrackedStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color(untrackedColorConstant)),
	}, nil
}

// RenderRecord prints the risk row for one repository, followed by the detail
// sections the configured verbosity calls for. Sections with no content are
// omitted.
func (renderer *Renderer) RenderRecord(record Record) error {
	recordText := &strings.Builder{}
	renderer.writeStatusRow(recordText, record)

	if renderer.options.Verbose {
		renderer.writeReferenceSection(recordText, record.ReferenceList)
		writeItemSection(recordText, changedSectionHeaderConstant, record.ChangedFileList)
		writeItemSection(recordText, untrackedSectionHeaderConstant, record.UntrackedFileList)
	}
	if renderer.options.VeryVerbose {
		writeTextSection(recordText, fetchSectionHeaderConstant, record.FetchOutput)
		writeTextSection(recordText, pullSectionHeaderConstant, record.PullOutput)
		writeTextSection(recordText, statusSectionHeaderConstant, record.StatusText)
	}

	_, writeError := io.WriteString(renderer.outputWriter, recordText.String())
	return writeError
}

func (renderer *Renderer) writeStatusRow(recordText *strings.Builder, record Record) {
	fmt.Fprintf(recordText, "%s%s%s%s %s\n",
		renderer.glyph(record.AheadOfUpstream, aheadGlyphConstant, renderer.aheadStyle),
		renderer.glyph(record.UnpushedReferences, referencesGlyphConstant, renderer.referencesStyle),
		renderer.glyph(record.UncommittedChanges, modifiedGlyphConstant, renderer.modifiedStyle),
		renderer.glyph(record.UntrackedFiles, untrackedGlyphConstant, renderer.untrackedStyle),
		record.RepositoryPath,
	)
}

func (renderer *Renderer) glyph(flagSet bool, glyphText string, glyphStyle lipgloss.Style) string {
	if !flagSet {
		return absentGlyphConstant
	}
	if !renderer.options.ColorEnabled {
		return glyphText
	}
	return glyphStyle.Render(glyphText)
}

func (renderer *Renderer) writeReferenceSection(recordText *strings.Builder, referenceList []refs.ReferenceDescriptor) {
	if len(referenceList) == 0 {
		return
	}

	fmt.Fprintln(recordText, referenceSectionHeaderConstant)
	for _, referenceDescriptor := range referenceList {
		fmt.Fprintf(recordText, "%s%s\n", sectionItemIndentConstant, describeReference(referenceDescriptor))
	}
}

func describeReference(referenceDescriptor refs.ReferenceDescriptor) string {
	if referenceDescriptor.Kind == refs.ReferenceKindTag {
		return tagItemPrefixConstant + referenceDescriptor.TagName
	}
	return fmt.Sprintf("%s %s", referenceDescriptor.ShortHash, referenceDescriptor.Subject)
}

func writeItemSection(recordText *strings.Builder, sectionHeader string, sectionItems []string) {
	if len(sectionItems) == 0 {
		return
	}

	fmt.Fprintln(recordText, sectionHeader)
	for _, sectionItem := range sectionItems {
		fmt.Fprintf(recordText, "%s%s\n", sectionItemIndentConstant, sectionItem)
	}
}

func writeTextSection(recordText *strings.Builder, sectionHeader string, sectionText string) {
	trimmedText := strings.TrimRight(sectionText, "\n")
	if len(strings.TrimSpace(trimmedText)) == 0 {
		return
	}

	fmt.Fprintln(recordText, sectionHeader)
	for _, textLine := range strings.Split(trimmedText, "\n") {
		fmt.Fprintf(recordText, "%s%s\n", sectionItemIndentConstant, textLine)
	}
}
