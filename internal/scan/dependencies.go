package scan

import (
	"context"
	"io"
	"io/fs"
	"time"

	"go.uber.org/zap"

	"github.com/driftworks/unshipped/internal/discovery"
	"github.com/driftworks/unshipped/internal/execshell"
	"github.com/driftworks/unshipped/internal/filesystem"
	"github.com/driftworks/unshipped/internal/gitrepo"
	"github.com/driftworks/unshipped/internal/refs"
	"github.com/driftworks/unshipped/internal/report"
	"github.com/driftworks/unshipped/internal/ui"
)

// RepositoryWalker locates repository roots beneath the scan root.
type RepositoryWalker interface {
	Walk(executionContext context.Context, rootPath string, visitRepository discovery.RepositoryVisitor) error
}

// RepositoryProbe exposes the per-repository git queries the scan evaluates.
type RepositoryProbe interface {
	CountAheadOfUpstream(executionContext context.Context, repositoryPath string) (int, bool)
	IsWorktreeDirty(executionContext context.Context, repositoryPath string) (bool, error)
	HasUntrackedFiles(executionContext context.Context, repositoryPath string) (bool, error)
	Fetch(executionContext context.Context, repositoryPath string) (string, error)
	Pull(executionContext context.Context, repositoryPath string) (string, error)
	ListChangedFiles(executionContext context.Context, repositoryPath string) ([]string, error)
	ListUntrackedFiles(executionContext context.Context, repositoryPath string) ([]string, error)
	WorktreeStatusText(executionContext context.Context, repositoryPath string) (string, error)
}

// ReferenceReconciler computes the locally referenced commits and tags that
// are missing from a repository's remote.
type ReferenceReconciler interface {
	UnpushedReferences(executionContext context.Context, repositoryPath string, remoteName string) []refs.ReferenceDescriptor
}

// RecordRenderer emits one report record.
type RecordRenderer interface {
	RenderRecord(record report.Record) error
}

// GitExecutor exposes the subset of shell execution used by the scan command.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// FileSystem provides the filesystem access used to validate and walk the scan root.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	ReadDir(path string) ([]fs.DirEntry, error)
}

// ResolveFileSystem returns the provided file system or an OS-backed default.
func ResolveFileSystem(existing FileSystem) FileSystem {
	if existing != nil {
		return existing
	}
	return filesystem.OSFileSystem{}
}

// ResolveGitExecutor returns the provided executor or constructs a
// shell-backed default. Human-readable logging attaches the console event
// logger so remote operations announce themselves.
func ResolveGitExecutor(existing GitExecutor, logger *zap.Logger, humanReadableLogging bool) (GitExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	if humanReadableLogging {
		return execshell.NewShellExecutor(logger, commandRunner, ui.NewConsoleCommandEventLogger(logger))
	}
	return execshell.NewShellExecutor(logger, commandRunner)
}

// ResolveRepositoryProbe returns the provided probe or the git-backed repository manager.
func ResolveRepositoryProbe(existing RepositoryProbe, repositoryManager *gitrepo.RepositoryManager) RepositoryProbe {
	if existing != nil {
		return existing
	}
	return repositoryManager
}

// ResolveRepositoryWalker returns the provided walker or constructs a filesystem-backed default.
func ResolveRepositoryWalker(existing RepositoryWalker, directoryReader discovery.DirectoryReader, repositoryDetector discovery.RepositoryDetector, logger *zap.Logger, excludePatterns []string) (RepositoryWalker, error) {
	if existing != nil {
		return existing, nil
	}
	return discovery.NewTreeWalker(directoryReader, repositoryDetector, logger, excludePatterns)
}

// ResolveReferenceReconciler returns the provided reconciler or constructs one
// around the repository's reference queries.
func ResolveReferenceReconciler(existing ReferenceReconciler, referenceQueries refs.ReferenceQueries, logger *zap.Logger, remoteTimeout time.Duration) (ReferenceReconciler, error) {
	if existing != nil {
		return existing, nil
	}
	return refs.NewReconciler(referenceQueries, logger, remoteTimeout)
}

// ResolveRecordRenderer returns the provided renderer or constructs the report renderer.
func ResolveRecordRenderer(existing RecordRenderer, outputWriter io.Writer, rendererOptions report.RendererOptions) (RecordRenderer, error) {
	if existing != nil {
		return existing, nil
	}
	return report.NewRenderer(outputWriter, rendererOptions)
}
