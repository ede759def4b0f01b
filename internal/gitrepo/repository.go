package gitrepo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/driftworks/unshipped/internal/execshell"
)

const (
	gitMetadataDirectoryNameConstant       = ".git"
	gitStatusSubcommandConstant            = "status"
	gitStatusPorcelainFlagConstant         = "--porcelain"
	gitRevListSubcommandConstant           = "rev-list"
	gitRevListCountFlagConstant            = "--count"
	gitUpstreamRangeConstant               = "@{upstream}..HEAD"
	gitLogSubcommandConstant               = "log"
	gitLogBranchesFlagConstant             = "--branches"
	gitLogNotFlagConstant                  = "--not"
	gitLogRemotesFlagConstant              = "--remotes"
	gitLogFormatFlagConstant               = "--pretty=format:%h%x09%s"
	gitTagSubcommandConstant               = "tag"
	gitTagListFlagConstant                 = "--list"
	gitLSRemoteSubcommandConstant          = "ls-remote"
	gitLSRemoteTagsFlagConstant            = "--tags"
	gitLSFilesSubcommandConstant           = "ls-files"
	gitLSFilesOthersFlagConstant           = "--others"
	gitLSFilesExcludeStandardConstant      = "--exclude-standard"
	gitFetchSubcommandConstant             = "fetch"
	gitPullSubcommandConstant              = "pull"
	gitPullFastForwardOnlyFlagConstant     = "--ff-only"
	gitTerminalPromptVariableConstant      = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledConstant      = "0"
	remoteTagReferencePrefixConstant       = "refs/tags/"
	peeledTagReferenceSuffixConstant       = "^{}"
	porcelainUntrackedPrefixConstant       = "??"
	porcelainStatusColumnWidthConstant     = 3
	fieldSeparatorTabConstant              = "\t"
	executorNotConfiguredMessageConstant   = "repository manager requires a git executor"
	fileSystemNotConfiguredMessageConstant = "repository manager requires a file system"
)

// Initialization errors returned by NewRepositoryManager.
var (
	ErrExecutorNotConfigured   = errors.New(executorNotConfiguredMessageConstant)
	ErrFileSystemNotConfigured = errors.New(fileSystemNotConfiguredMessageConstant)
)

// GitExecutor runs git commands and reports their results.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// FileSystem provides the filesystem inspection the repository-root test needs.
type FileSystem interface {
	Stat(name string) (os.FileInfo, error)
}

// CommitSummary pairs a short commit hash with the first line of its message.
type CommitSummary struct {
	ShortHash string
	Subject   string
}

// RepositoryManager is the repository probe: the repository-root test plus
// per-repository read queries and the user-requested fetch and pull operations.
type RepositoryManager struct {
	gitExecutor GitExecutor
	fileSystem  FileSystem
}

// NewRepositoryManager constructs a RepositoryManager around the provided executor and file system.
func NewRepositoryManager(gitExecutor GitExecutor, fileSystem FileSystem) (*RepositoryManager, error) {
	if gitExecutor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if fileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	return &RepositoryManager{gitExecutor: gitExecutor, fileSystem: fileSystem}, nil
}

// IsRepositoryRoot reports whether the metadata directory sits directly under the candidate path.
// Ancestor directories are never consulted.
func (manager *RepositoryManager) IsRepositoryRoot(candidatePath string) bool {
	metadataPath := filepath.Join(candidatePath, gitMetadataDirectoryNameConstant)
	metadataInfo, statError := manager.fileSystem.Stat(metadataPath)
	if statError != nil {
		return false
	}
	return metadataInfo.IsDir()
}

// CountAheadOfUpstream returns the number of commits on the current branch missing
// from its configured upstream. The second result is false when the comparison is
// unavailable, most commonly because no upstream is configured.
func (manager *RepositoryManager) CountAheadOfUpstream(executionContext context.Context, repositoryPath string) (int, bool) {
	arguments := []string{gitRevListSubcommandConstant, gitRevListCountFlagConstant, gitUpstreamRangeConstant}
	executionResult, executionError := manager.runGit(executionContext, repositoryPath, arguments)
	if executionError != nil {
		return 0, false
	}

	aheadCount, parseError := strconv.Atoi(strings.TrimSpace(executionResult.StandardOutput))
	if parseError != nil || aheadCount < 0 {
		return 0, false
	}
	return aheadCount, true
}

// IsWorktreeDirty reports whether tracked files differ from the index or HEAD.
func (manager *RepositoryManager) IsWorktreeDirty(executionContext context.Context, repositoryPath string) (bool, error) {
	statusLines, statusError := manager.porcelainStatusLines(executionContext, repositoryPath)
	if statusError != nil {
		return false, statusError
	}

	for _, statusLine := range statusLines {
		if !strings.HasPrefix(statusLine, porcelainUntrackedPrefixConstant) {
			return true, nil
		}
	}
	return false, nil
}

// HasUntrackedFiles reports whether any untracked, non-ignored file exists.
func (manager *RepositoryManager) HasUntrackedFiles(executionContext context.Context, repositoryPath string) (bool, error) {
	untrackedFiles, listError := manager.ListUntrackedFiles(executionContext, repositoryPath)
	if listError != nil {
		return false, listError
	}
	return len(untrackedFiles) > 0, nil
}

// ListBranchOnlyCommits returns the commits reachable from local branches but from
// no remote-tracking branch, newest first.
func (manager *RepositoryManager) ListBranchOnlyCommits(executionContext context.Context, repositoryPath string) ([]CommitSummary, error) {
	arguments := []string{
		gitLogSubcommandConstant,
		gitLogBranchesFlagConstant,
		gitLogNotFlagConstant,
		gitLogRemotesFlagConstant,
		gitLogFormatFlagConstant,
	}
	executionResult, executionError := manager.runGit(executionContext, repositoryPath, arguments)
	if executionError != nil {
		return nil, executionError
	}

	commitLines := splitNonEmptyLines(executionResult.StandardOutput)
	commitSummaries := make([]CommitSummary, 0, len(commitLines))
	for _, commitLine := range commitLines {
		shortHash, subjectLine, separatorFound := strings.Cut(commitLine, fieldSeparatorTabConstant)
		if !separatorFound {
			shortHash = strings.TrimSpace(commitLine)
		}
		commitSummaries = append(commitSummaries, CommitSummary{
			ShortHash: strings.TrimSpace(shortHash),
			Subject:   strings.TrimSpace(subjectLine),
		})
	}
	return commitSummaries, nil
}

// ListLocalTags returns local tag names in git's enumeration order.
func (manager *RepositoryManager) ListLocalTags(executionContext context.Context, repositoryPath string) ([]string, error) {
	arguments := []string{gitTagSubcommandConstant, gitTagListFlagConstant}
	executionResult, executionError := manager.runGit(executionContext, repositoryPath, arguments)
	if executionError != nil {
		return nil, executionError
	}
	return splitNonEmptyLines(executionResult.StandardOutput), nil
}

// ListRemoteTags returns the tag names present on the named remote. Peeled
// references are dropped so annotated tags appear once.
func (manager *RepositoryManager) ListRemoteTags(executionContext context.Context, repositoryPath string, remoteName string) ([]string, error) {
	arguments := []string{gitLSRemoteSubcommandConstant, gitLSRemoteTagsFlagConstant, remoteName}
	executionResult, executionError := manager.runRemoteGit(executionContext, repositoryPath, arguments)
	if executionError != nil {
		return nil, executionError
	}

	referenceLines := splitNonEmptyLines(executionResult.StandardOutput)
	remoteTagNames := make([]string, 0, len(referenceLines))
	for _, referenceLine := range referenceLines {
		_, referenceName, separatorFound := strings.Cut(referenceLine, fieldSeparatorTabConstant)
		if !separatorFound {
			continue
		}
		tagName := strings.TrimPrefix(strings.TrimSpace(referenceName), remoteTagReferencePrefixConstant)
		if tagName == strings.TrimSpace(referenceName) {
			continue
		}
		if strings.HasSuffix(tagName, peeledTagReferenceSuffixConstant) {
			continue
		}
		remoteTagNames = append(remoteTagNames, tagName)
	}
	return remoteTagNames, nil
}

// Fetch contacts the repository's remote and updates remote-tracking references.
// The combined command output is returned even when the fetch fails.
func (manager *RepositoryManager) Fetch(executionContext context.Context, repositoryPath string) (string, error) {
	arguments := []string{gitFetchSubcommandConstant}
	return manager.runRemoteGitCapturingOutput(executionContext, repositoryPath, arguments)
}

// Pull fast-forwards the current branch from its upstream. Non-fast-forward
// conditions surface in the combined output text alongside the returned error.
func (manager *RepositoryManager) Pull(executionContext context.Context, repositoryPath string) (string, error) {
	arguments := []string{gitPullSubcommandConstant, gitPullFastForwardOnlyFlagConstant}
	return manager.runRemoteGitCapturingOutput(executionContext, repositoryPath, arguments)
}

// ListUntrackedFiles returns the untracked, non-ignored paths for display.
func (manager *RepositoryManager) ListUntrackedFiles(executionContext context.Context, repositoryPath string) ([]string, error) {
	arguments := []string{gitLSFilesSubcommandConstant, gitLSFilesOthersFlagConstant, gitLSFilesExcludeStandardConstant}
	executionResult, executionError := manager.runGit(executionContext, repositoryPath, arguments)
	if executionError != nil {
		return nil, executionError
	}
	return splitNonEmptyLines(executionResult.StandardOutput), nil
}

// ListChangedFiles returns the tracked paths with modifications for display.
func (manager *RepositoryManager) ListChangedFiles(executionContext context.Context, repositoryPath string) ([]string, error) {
	statusLines, statusError := manager.porcelainStatusLines(executionContext, repositoryPath)
	if statusError != nil {
		return nil, statusError
	}

	changedFiles := make([]string, 0, len(statusLines))
	for _, statusLine := range statusLines {
		if strings.HasPrefix(statusLine, porcelainUntrackedPrefixConstant) {
			continue
		}
		if len(statusLine) <= porcelainStatusColumnWidthConstant {
			continue
		}
		changedFiles = append(changedFiles, strings.TrimSpace(statusLine[porcelainStatusColumnWidthConstant:]))
	}
	return changedFiles, nil
}

// WorktreeStatusText returns the human-readable status output for display.
func (manager *RepositoryManager) WorktreeStatusText(executionContext context.Context, repositoryPath string) (string, error) {
	arguments := []string{gitStatusSubcommandConstant}
	executionResult, executionError := manager.runGit(executionContext, repositoryPath, arguments)
	if executionError != nil {
		return "", executionError
	}
	return executionResult.StandardOutput, nil
}

func (manager *RepositoryManager) porcelainStatusLines(executionContext context.Context, repositoryPath string) ([]string, error) {
	arguments := []string{gitStatusSubcommandConstant, gitStatusPorcelainFlagConstant}
	executionResult, executionError := manager.runGit(executionContext, repositoryPath, arguments)
	if executionError != nil {
		return nil, executionError
	}
	return splitNonEmptyLines(executionResult.StandardOutput), nil
}

func (manager *RepositoryManager) runGit(executionContext context.Context, repositoryPath string, arguments []string) (execshell.ExecutionResult, error) {
	commandDetails := execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
	}
	return manager.gitExecutor.ExecuteGit(executionContext, commandDetails)
}

func (manager *RepositoryManager) runRemoteGit(executionContext context.Context, repositoryPath string, arguments []string) (execshell.ExecutionResult, error) {
	commandDetails := execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
		EnvironmentVariables: map[string]string{
			gitTerminalPromptVariableConstant: gitTerminalPromptDisabledConstant,
		},
	}
	return manager.gitExecutor.ExecuteGit(executionContext, commandDetails)
}

func (manager *RepositoryManager) runRemoteGitCapturingOutput(executionContext context.Context, repositoryPath string, arguments []string) (string, error) {
	executionResult, executionError := manager.runRemoteGit(executionContext, repositoryPath, arguments)
	if executionError != nil {
		failedError := execshell.CommandFailedError{}
		if errors.As(executionError, &failedError) {
			return combineCommandOutput(failedError.Result), executionError
		}
		return "", executionError
	}
	return combineCommandOutput(executionResult), nil
}

func combineCommandOutput(executionResult execshell.ExecutionResult) string {
	outputSections := make([]string, 0, 2)
	if trimmedStandardOutput := strings.TrimSpace(executionResult.StandardOutput); len(trimmedStandardOutput) > 0 {
		outputSections = append(outputSections, trimmedStandardOutput)
	}
	if trimmedStandardError := strings.TrimSpace(executionResult.StandardError); len(trimmedStandardError) > 0 {
		outputSections = append(outputSections, trimmedStandardError)
	}
	return strings.Join(outputSections, "\n")
}

func splitNonEmptyLines(outputText string) []string {
	rawLines := strings.Split(outputText, "\n")
	lines := make([]string, 0, len(rawLines))
	for _, rawLine := range rawLines {
		trimmedLine := strings.TrimRight(rawLine, "\r")
		if len(strings.TrimSpace(trimmedLine)) == 0 {
			continue
		}
		lines = append(lines, trimmedLine)
	}
	return lines
}
