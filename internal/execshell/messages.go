package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	defaultRemoteLabelConstant              = "the default remote"
)

const (
	gitStatusSubcommandNameConstant   = "status"
	gitRevListSubcommandNameConstant  = "rev-list"
	gitRevListCountFlagConstant       = "--count"
	gitLogSubcommandNameConstant      = "log"
	gitLogBranchesFlagConstant        = "--branches"
	gitTagSubcommandNameConstant      = "tag"
	gitLSRemoteSubcommandNameConstant = "ls-remote"
	gitLSRemoteTagsFlagConstant       = "--tags"
	gitLSFilesSubcommandNameConstant  = "ls-files"
	gitFetchSubcommandNameConstant    = "fetch"
	gitPullSubcommandNameConstant     = "pull"
)

const (
	gitStatusStartTemplateConstant                       = "Reviewing working tree status in %s"
	gitStatusSuccessTemplateConstant                     = "Collected working tree status for %s"
	gitStatusFailureTemplateConstant                     = "Failed to review working tree status in %s (exit code %d%s)"
	gitStatusExecutionFailureTemplateConstant            = "Unable to review working tree status in %s: %s"
	gitAheadCountStartTemplateConstant                   = "Counting commits ahead of upstream in %s"
	gitAheadCountSuccessTemplateConstant                 = "Counted commits ahead of upstream in %s"
	gitAheadCountFailureTemplateConstant                 = "Could not compare %s against an upstream (exit code %d%s)"
	gitAheadCountExecutionFailureTemplateConstant        = "Unable to count commits ahead of upstream in %s: %s"
	gitRevListStartTemplateConstant                      = "Enumerating revisions in %s"
	gitRevListSuccessTemplateConstant                    = "Enumerated revisions in %s"
	gitRevListFailureTemplateConstant                    = "Failed to enumerate revisions in %s (exit code %d%s)"
	gitRevListExecutionFailureTemplateConstant           = "Unable to enumerate revisions in %s: %s"
	gitBranchOnlyCommitsStartTemplateConstant            = "Listing commits missing from every remote branch in %s"
	gitBranchOnlyCommitsSuccessTemplateConstant          = "Listed commits missing from every remote branch in %s"
	gitBranchOnlyCommitsFailureTemplateConstant          = "Failed to list unpushed commits in %s (exit code %d%s)"
	gitBranchOnlyCommitsExecutionFailureTemplateConstant = "Unable to list unpushed commits in %s: %s"
	gitLogStartTemplateConstant                          = "Reading history in %s"
	gitLogSuccessTemplateConstant                        = "Read history in %s"
	gitLogFailureTemplateConstant                        = "Failed to read history in %s (exit code %d%s)"
	gitLogExecutionFailureTemplateConstant               = "Unable to read history in %s: %s"
	gitTagListStartTemplateConstant                      = "Listing local tags in %s"
	gitTagListSuccessTemplateConstant                    = "Listed local tags in %s"
	gitTagListFailureTemplateConstant                    = "Failed to list local tags in %s (exit code %d%s)"
	gitTagListExecutionFailureTemplateConstant           = "Unable to list local tags in %s: %s"
	gitRemoteTagsStartTemplateConstant                   = "Listing tags on %s for %s"
	gitRemoteTagsSuccessTemplateConstant                 = "Listed tags on %s for %s"
	gitRemoteTagsFailureTemplateConstant                 = "Failed to list tags on %s for %s (exit code %d%s)"
	gitRemoteTagsExecutionFailureTemplateConstant        = "Unable to list tags on %s for %s: %s"
	gitLSRemoteGenericStartTemplateConstant              = "Querying remote references on %s for %s"
	gitLSRemoteGenericSuccessTemplateConstant            = "Queried remote references on %s for %s"
	gitLSRemoteGenericFailureTemplateConstant            = "Failed to query remote references on %s for %s (exit code %d%s)"
	gitLSRemoteGenericExecutionFailureTemplateConstant   = "Unable to query remote references on %s for %s: %s"
	gitUntrackedStartTemplateConstant                    = "Listing untracked files in %s"
	gitUntrackedSuccessTemplateConstant                  = "Listed untracked files in %s"
	gitUntrackedFailureTemplateConstant                  = "Failed to list untracked files in %s (exit code %d%s)"
	gitUntrackedExecutionFailureTemplateConstant         = "Unable to list untracked files in %s: %s"
	gitFetchStartTemplateConstant                        = "Fetching from %s in %s"
	gitFetchSuccessTemplateConstant                      = "Fetched from %s in %s"
	gitFetchFailureTemplateConstant                      = "Failed to fetch from %s in %s (exit code %d%s)"
	gitFetchExecutionFailureTemplateConstant             = "Unable to fetch from %s in %s: %s"
	gitPullStartTemplateConstant                         = "Fast-forwarding %s from its upstream"
	gitPullSuccessTemplateConstant                       = "Fast-forwarded %s from its upstream"
	gitPullFailureTemplateConstant                       = "Could not fast-forward %s (exit code %d%s)"
	gitPullExecutionFailureTemplateConstant              = "Unable to pull in %s: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

// ShouldAnnounceLifecycle reports whether start and success messages deserve console output.
// Read-only probe queries run once per repository and would flood the console, so only
// remote-touching operations are announced; failures are always announced.
func (formatter CommandMessageFormatter) ShouldAnnounceLifecycle(command ShellCommand) bool {
	if command.Name != CommandGit {
		return true
	}
	subcommand := formatter.argumentAtIndex(command.Details.Arguments, 0)
	switch subcommand {
	case gitFetchSubcommandNameConstant, gitPullSubcommandNameConstant, gitLSRemoteSubcommandNameConstant:
		return true
	default:
		return false
	}
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
	return formatter.describeGitMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeGitMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	subcommand := strings.TrimSpace(command.Details.Arguments[0])
	switch subcommand {
	case gitStatusSubcommandNameConstant:
		return formatter.describeGitStatusMessage(command, result, failure, stage)
	case gitRevListSubcommandNameConstant:
		return formatter.describeGitRevListMessage(command, result, failure, stage)
	case gitLogSubcommandNameConstant:
		return formatter.describeGitLogMessage(command, result, failure, stage)
	case gitTagSubcommandNameConstant:
		return formatter.describeGitTagMessage(command, result, failure, stage)
	case gitLSRemoteSubcommandNameConstant:
		return formatter.describeGitLSRemoteMessage(command, result, failure, stage)
	case gitLSFilesSubcommandNameConstant:
		return formatter.describeGitLSFilesMessage(command, result, failure, stage)
	case gitFetchSubcommandNameConstant:
		return formatter.describeGitFetchMessage(command, result, failure, stage)
	case gitPullSubcommandNameConstant:
		return formatter.describeGitPullMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitStatusMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitStatusStartTemplateConstant, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitStatusSuccessTemplateConstant, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitStatusFailureTemplateConstant, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitStatusExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeGitRevListMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)

	if containsArgument(command.Details.Arguments, gitRevListCountFlagConstant) {
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitAheadCountStartTemplateConstant, workingDirectory)
		case messageStageSuccess:
			return fmt.Sprintf(gitAheadCountSuccessTemplateConstant, workingDirectory)
		case messageStageFailure:
			return fmt.Sprintf(gitAheadCountFailureTemplateConstant, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		default:
			return fmt.Sprintf(gitAheadCountExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
		}
	}

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitRevListStartTemplateConstant, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitRevListSuccessTemplateConstant, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitRevListFailureTemplateConstant, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitRevListExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeGitLogMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)

	if containsArgument(command.Details.Arguments, gitLogBranchesFlagConstant) {
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitBranchOnlyCommitsStartTemplateConstant, workingDirectory)
		case messageStageSuccess:
			return fmt.Sprintf(gitBranchOnlyCommitsSuccessTemplateConstant, workingDirectory)
		case messageStageFailure:
			return fmt.Sprintf(gitBranchOnlyCommitsFailureTemplateConstant, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		default:
			return fmt.Sprintf(gitBranchOnlyCommitsExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
		}
	}

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitLogStartTemplateConstant, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitLogSuccessTemplateConstant, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitLogFailureTemplateConstant, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitLogExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeGitTagMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitTagListStartTemplateConstant, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitTagListSuccessTemplateConstant, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitTagListFailureTemplateConstant, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitTagListExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeGitLSRemoteMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	remoteName := formatter.extractRemoteForLSRemote(command.Details.Arguments)

	if containsArgument(command.Details.Arguments, gitLSRemoteTagsFlagConstant) {
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitRemoteTagsStartTemplateConstant, remoteName, workingDirectory)
		case messageStageSuccess:
			return fmt.Sprintf(gitRemoteTagsSuccessTemplateConstant, remoteName, workingDirectory)
		case messageStageFailure:
			return fmt.Sprintf(gitRemoteTagsFailureTemplateConstant, remoteName, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		default:
			return fmt.Sprintf(gitRemoteTagsExecutionFailureTemplateConstant, remoteName, workingDirectory, formatter.describeFailure(failure))
		}
	}

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitLSRemoteGenericStartTemplateConstant, remoteName, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitLSRemoteGenericSuccessTemplateConstant, remoteName, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitLSRemoteGenericFailureTemplateConstant, remoteName, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitLSRemoteGenericExecutionFailureTemplateConstant, remoteName, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeGitLSFilesMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitUntrackedStartTemplateConstant, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitUntrackedSuccessTemplateConstant, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitUntrackedFailureTemplateConstant, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitUntrackedExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeGitFetchMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	remoteName := formatter.extractFirstNonFlagArgument(command.Details.Arguments[1:])
	if len(remoteName) == 0 {
		remoteName = defaultRemoteLabelConstant
	}

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitFetchStartTemplateConstant, remoteName, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitFetchSuccessTemplateConstant, remoteName, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitFetchFailureTemplateConstant, remoteName, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitFetchExecutionFailureTemplateConstant, remoteName, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeGitPullMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitPullStartTemplateConstant, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitPullSuccessTemplateConstant, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitPullFailureTemplateConstant, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitPullExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandParts := []string{string(command.Name)}
	if len(command.Details.Arguments) > 0 {
		commandParts = append(commandParts, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	commandLabel := strings.Join(commandParts, commandArgumentsJoinSeparatorConstant)
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) extractRemoteForLSRemote(arguments []string) string {
	remoteName := formatter.extractFirstNonFlagArgument(arguments[1:])
	if len(remoteName) == 0 {
		return defaultRemoteLabelConstant
	}
	return remoteName
}

func (formatter CommandMessageFormatter) extractFirstNonFlagArgument(arguments []string) string {
	for _, argument := range arguments {
		trimmedArgument := strings.TrimSpace(argument)
		if len(trimmedArgument) == 0 {
			continue
		}
		if strings.HasPrefix(trimmedArgument, "-") {
			continue
		}
		return trimmedArgument
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index < 0 || index >= len(arguments) {
		return emptyStringConstant
	}
	return strings.TrimSpace(arguments[index])
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}
