package discovery

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

const (
	gitMetadataDirectoryNameConstant     = ".git"
	readerNotConfiguredMessageConstant   = "tree walker requires a directory reader"
	detectorNotConfiguredMessageConstant = "tree walker requires a repository detector"
	loggerNotConfiguredMessageConstant   = "tree walker requires a logger"
	visitorNotConfiguredMessageConstant  = "tree walker requires a repository visitor"
	directoryUnreadableMessageConstant   = "skipping unreadable directory"
	directoryPathLogFieldConstant        = "directory_path"
)

// Initialization and invocation errors returned by the tree walker.
var (
	ErrDirectoryReaderNotConfigured    = errors.New(readerNotConfiguredMessageConstant)
	ErrRepositoryDetectorNotConfigured = errors.New(detectorNotConfiguredMessageConstant)
	ErrLoggerNotConfigured             = errors.New(loggerNotConfiguredMessageConstant)
	ErrVisitorNotConfigured            = errors.New(visitorNotConfiguredMessageConstant)
)

// DirectoryReader lists directory entries.
type DirectoryReader interface {
	ReadDir(path string) ([]fs.DirEntry, error)
}

// RepositoryDetector reports whether a directory is a repository root.
type RepositoryDetector interface {
	IsRepositoryRoot(candidatePath string) bool
}

// RepositoryVisitor receives each repository root as soon as the walker
// reaches it. Returning an error stops the walk.
type RepositoryVisitor func(repositoryPath string) error

// TreeWalker performs a depth-first descent below a root directory and hands
// every repository root to a visitor.
type TreeWalker struct {
	directoryReader    DirectoryReader
	repositoryDetector RepositoryDetector
	logger             *zap.Logger
	excludePatterns    []string
}

// NewTreeWalker constructs a TreeWalker. Exclude patterns use doublestar glob
// syntax and are matched against full, slash-normalized directory paths.
func NewTreeWalker(directoryReader DirectoryReader, repositoryDetector RepositoryDetector, logger *zap.Logger, excludePatterns []string) (*TreeWalker, error) {
	if directoryReader == nil {
		return nil, ErrDirectoryReaderNotConfigured
	}
	if repositoryDetector == nil {
		return nil, ErrRepositoryDetectorNotConfigured
	}
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	return &TreeWalker{
		directoryReader:    directoryReader,
		repositoryDetector: repositoryDetector,
		logger:             logger,
		excludePatterns:    excludePatterns,
	}, nil
}

// Walk descends through rootPath's children in sorted enumeration order. The
// root itself is never reported; repository roots are visited and not entered;
// symbolic links are not followed. Unreadable directories are logged and
// skipped rather than aborting the walk.
func (walker *TreeWalker) Walk(executionContext context.Context, rootPath string, visitRepository RepositoryVisitor) error {
	if visitRepository == nil {
		return ErrVisitorNotConfigured
	}
	return walker.walkDirectory(executionContext, rootPath, visitRepository)
}

func (walker *TreeWalker) walkDirectory(executionContext context.Context, directoryPath string, visitRepository RepositoryVisitor) error {
	if contextError := executionContext.Err(); contextError != nil {
		return contextError
	}

	directoryEntries, readError := walker.directoryReader.ReadDir(directoryPath)
	if readError != nil {
		walker.logger.Warn(directoryUnreadableMessageConstant,
			zap.String(directoryPathLogFieldConstant, directoryPath),
			zap.Error(readError))
		return nil
	}

	for _, directoryEntry := range directoryEntries {
		if !directoryEntry.IsDir() {
			continue
		}
		if directoryEntry.Name() == gitMetadataDirectoryNameConstant {
			continue
		}

		childPath := filepath.Join(directoryPath, directoryEntry.Name())
		if matchesExcludePattern(childPath, walker.excludePatterns) {
			continue
		}

		if walker.repositoryDetector.IsRepositoryRoot(childPath) {
			if visitError := visitRepository(childPath); visitError != nil {
				return visitError
			}
			continue
		}

		if walkError := walker.walkDirectory(executionContext, childPath, visitRepository); walkError != nil {
			return walkError
		}
	}
	return nil
}

func matchesExcludePattern(candidatePath string, excludePatterns []string) bool {
	if len(excludePatterns) == 0 {
		return false
	}

	slashPath := filepath.ToSlash(candidatePath)
	for _, excludePattern := range excludePatterns {
		matched, matchError := doublestar.Match(filepath.ToSlash(excludePattern), slashPath)
		if matchError != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
