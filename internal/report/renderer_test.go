package report_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/driftworks/unshipped/internal/refs"
	"github.com/driftworks/unshipped/internal/report"
)

func TestNewRendererValidation(testInstance *testing.T) {
	renderer, creationError := report.NewRenderer(nil, report.RendererOptions{})
	require.Nil(testInstance, renderer)
	require.ErrorIs(testInstance, creationError, report.ErrWriterNotConfigured)
}

func TestRendererStatusRows(testInstance *testing.T) {
	testCases := []struct {
		name         string
		record       report.Record
		expectedLine string
	}{
		{
			name: "all_flags_raised",
			record: report.Record{
				RepositoryPath:     "/home/operator/src/widget",
				AheadOfUpstream:    true,
				UnpushedReferences: true,
				UncommittedChanges: true,
				UntrackedFiles:     true,
			},
			expectedLine: "PRMU /home/operator/src/widget\n",
		},
		{
			name: "ahead_and_untracked",
			record: report.Record{
				RepositoryPath:  "/home/operator/src/widget",
				AheadOfUpstream: true,
				UntrackedFiles:  true,
			},
			expectedLine: "P  U /home/operator/src/widget\n",
		},
		{
			name: "modified_only",
			record: report.Record{
				RepositoryPath:     "/home/operator/src/widget",
				UncommittedChanges: true,
			},
			expectedLine: "  M  /home/operator/src/widget\n",
		},
		{
			name: "clean_repository",
			record: report.Record{
				RepositoryPath: "/home/operator/src/widget",
			},
			expectedLine: "     /home/operator/src/widget\n",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			outputBuilder := &strings.Builder{}
			renderer, creationError := report.NewRenderer(outputBuilder, report.RendererOptions{})
			require.NoError(testInstance, creationError)

			require.NoError(testInstance, renderer.RenderRecord(testCase.record))
			require.Equal(testInstance, testCase.expectedLine, outputBuilder.String())
		})
	}
}

func TestRendererVerboseSections(testInstance *testing.T) {
	record := report.Record{
		RepositoryPath:     "/home/operator/src/widget",
		AheadOfUpstream:    true,
		UnpushedReferences: true,
		UncommittedChanges: true,
		UntrackedFiles:     true,
		ReferenceList: []refs.ReferenceDescriptor{
			{Kind: refs.ReferenceKindCommit, ShortHash: "a1b2c3d", Subject: "Add retry to uploader"},
			{Kind: refs.ReferenceKindTag, TagName: "v1.0.0"},
		},
		ChangedFileList:   []string{"cmd/main.go"},
		UntrackedFileList: []string{"notes.txt", "scratch/plan.md"},
	}

	outputBuilder := &strings.Builder{}
	renderer, creationError := report.NewRenderer(outputBuilder, report.RendererOptions{Verbose: true})
	require.NoError(testInstance, creationError)
	require.NoError(testInstance, renderer.RenderRecord(record))

	expectedOutput := strings.Join([]string{
		"PRMU /home/operator/src/widget",
		"  unpushed references:",
		"    a1b2c3d Add retry to uploader",
		"    tag: v1.0.0",
		"  changed files:",
		"    cmd/main.go",
		"  untracked files:",
		"    notes.txt",
		"    scratch/plan.md",
		"",
	}, "\n")
	require.Equal(testInstance, expectedOutput, outputBuilder.String())
}

func TestRendererOmitsEmptySections(testInstance *testing.T) {
	record := report.Record{
		RepositoryPath:  "/home/operator/src/widget",
		AheadOfUpstream: true,
	}

	outputBuilder := &strings.Builder{}
	renderer, creationError := report.NewRenderer(outputBuilder, report.RendererOptions{Verbose: true, VeryVerbose: true})
	require.NoError(testInstance, creationError)
	require.NoError(testInstance, renderer.RenderRecord(record))

	require.Equal(testInstance, "P    /home/operator/src/widget\n", outputBuilder.String())
}

func TestRendererVeryVerboseSections(testInstance *testing.T) {
	record := report.Record{
		RepositoryPath:  "/home/operator/src/widget",
		AheadOfUpstream: true,
		FetchOutput:     "From github.com:driftworks/widget\n   1a2b3c4..5d6e7f8  main -> origin/main",
		PullOutput:      "Already up to date.",
		StatusText:      "On branch main\nnothing to commit, working tree clean\n",
	}

	outputBuilder := &strings.Builder{}
	renderer, creationError := report.NewRenderer(outputBuilder, report.RendererOptions{Verbose: true, VeryVerbose: true})
	require.NoError(testInstance, creationError)
	require.NoError(testInstance, renderer.RenderRecord(record))

	expectedOutput := strings.Join([]string{
		"P    /home/operator/src/widget",
		"  fetch output:",
		"    From github.com:driftworks/widget",
		"       1a2b3c4..5d6e7f8  main -> origin/main",
		"  pull output:",
		"    Already up to date.",
		"  status:",
		"    On branch main",
		"    nothing to commit, working tree clean",
		"",
	}, "\n")
	require.Equal(testInstance, expectedOutput, outputBuilder.String())
}

func TestRendererColorizedRowKeepsGlyphsAndPath(testInstance *testing.T) {
	record := report.Record{
		RepositoryPath:     "/home/operator/src/widget",
		AheadOfUpstream:    true,
		UncommittedChanges: true,
	}

	outputBuilder := &strings.Builder{}
	renderer, creationError := report.NewRenderer(outputBuilder, report.RendererOptions{ColorEnabled: true})
	require.NoError(testInstance, creationError)
	require.NoError(testInstance, renderer.RenderRecord(record))

	renderedRow := outputBuilder.String()
	require.Contains(testInstance, renderedRow, "P")
	require.Contains(testInstance, renderedRow, "M")
	require.Contains(testInstance, renderedRow, "/home/operator/src/widget")
}
