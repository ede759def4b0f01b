package scan

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/driftworks/unshipped/internal/gitrepo"
	"github.com/driftworks/unshipped/internal/report"
	"github.com/driftworks/unshipped/internal/utils/flags"
	pathutils "github.com/driftworks/unshipped/internal/utils/path"
)

const (
	commandUseConstant                   = "unshipped <directory>"
	commandShortDescriptionConstant      = "Report repositories holding work that has not reached their remotes"
	commandLongDescriptionConstant       = "unshipped walks a directory tree, inspects every git repository beneath it, and prints one row per repository flagging commits ahead of upstream, locally referenced commits or tags missing from the remote, uncommitted changes, and untracked files. Clean repositories stay silent unless --all is set."
	allFlagNameConstant                  = "all"
	allFlagShorthandConstant             = "a"
	allFlagDescriptionConstant           = "Report clean repositories alongside flagged ones"
	fetchFlagNameConstant                = "fetch"
	fetchFlagShorthandConstant           = "f"
	fetchFlagDescriptionConstant         = "Fetch from the remote before evaluating each repository"
	pullFlagNameConstant                 = "pull"
	pullFlagShorthandConstant            = "p"
	pullFlagDescriptionConstant          = "Fast-forward each repository from its upstream before evaluating"
	deepFlagNameConstant                 = "deep"
	deepFlagShorthandConstant            = "d"
	deepFlagDescriptionConstant          = "Compare local commits and tags against the remote's references"
	verboseFlagNameConstant              = "verbose"
	verboseFlagShorthandConstant         = "v"
	verboseFlagDescriptionConstant       = "List the references and files behind each flag"
	veryVerboseFlagNameConstant          = "very-verbose"
	veryVerboseFlagShorthandConstant     = "V"
	veryVerboseFlagDescriptionConstant   = "Include fetch, pull, and status output for reported repositories"
	missingDirectoryMessageConstant      = "exactly one directory to scan is required"
	scanRootInaccessibleTemplateConstant = "cannot scan %s: %w"
	scanRootNotDirectoryTemplateConstant = "cannot scan %s: not a directory"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the scan cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  GitExecutor
	RepositoryProbe              RepositoryProbe
	RepositoryWalker             RepositoryWalker
	ReferenceReconciler          ReferenceReconciler
	RecordRenderer               RecordRenderer
	FileSystem                   FileSystem
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
}

// Build constructs the cobra command for the repository scan.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.ArbitraryArgs,
		RunE:  builder.run,
	}

	flags.AddToggleFlag(command.Flags(), nil, allFlagNameConstant, allFlagShorthandConstant, false, allFlagDescriptionConstant)
	flags.AddToggleFlag(command.Flags(), nil, fetchFlagNameConstant, fetchFlagShorthandConstant, false, fetchFlagDescriptionConstant)
	flags.AddToggleFlag(command.Flags(), nil, pullFlagNameConstant, pullFlagShorthandConstant, false, pullFlagDescriptionConstant)
	flags.AddToggleFlag(command.Flags(), nil, deepFlagNameConstant, deepFlagShorthandConstant, false, deepFlagDescriptionConstant)
	command.Flags().BoolP(verboseFlagNameConstant, verboseFlagShorthandConstant, false, verboseFlagDescriptionConstant)
	command.Flags().BoolP(veryVerboseFlagNameConstant, veryVerboseFlagShorthandConstant, false, veryVerboseFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()

	options, optionsError := builder.parseOptions(command, arguments, configuration)
	if optionsError != nil {
		return optionsError
	}

	fileSystem := ResolveFileSystem(builder.FileSystem)
	if rootError := validateScanRoot(fileSystem, options.RootPath); rootError != nil {
		return rootError
	}

	logger := builder.resolveLogger()
	humanReadableLogging := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadableLogging = builder.HumanReadableLoggingProvider()
	}

	gitExecutor, executorError := ResolveGitExecutor(builder.GitExecutor, logger, humanReadableLogging)
	if executorError != nil {
		return executorError
	}

	repositoryManager, managerError := gitrepo.NewRepositoryManager(gitExecutor, fileSystem)
	if managerError != nil {
		return managerError
	}

	repositoryProbe := ResolveRepositoryProbe(builder.RepositoryProbe, repositoryManager)

	repositoryWalker, walkerError := ResolveRepositoryWalker(builder.RepositoryWalker, fileSystem, repositoryManager, logger, configuration.Excludes)
	if walkerError != nil {
		return walkerError
	}

	referenceReconciler, reconcilerError := ResolveReferenceReconciler(builder.ReferenceReconciler, repositoryManager, logger, options.RemoteTimeout)
	if reconcilerError != nil {
		return reconcilerError
	}

	rendererOptions := report.RendererOptions{
		ColorEnabled: terminalColorEnabled(command.OutOrStdout()),
		Verbose:      options.Verbose,
		VeryVerbose:  options.VeryVerbose,
	}
	recordRenderer, rendererError := ResolveRecordRenderer(builder.RecordRenderer, command.OutOrStdout(), rendererOptions)
	if rendererError != nil {
		return rendererError
	}

	service, serviceError := NewService(repositoryWalker, repositoryProbe, referenceReconciler, recordRenderer, logger)
	if serviceError != nil {
		return serviceError
	}

	return service.Run(command.Context(), options)
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command, arguments []string, configuration CommandConfiguration) (CommandOptions, error) {
	if len(arguments) != 1 {
		if helpError := builder.displayCommandHelp(command); helpError != nil {
			return CommandOptions{}, helpError
		}
		return CommandOptions{}, errors.New(missingDirectoryMessageConstant)
	}

	includeClean, includeCleanError := resolveBooleanOption(command, allFlagNameConstant, configuration.IncludeClean)
	if includeCleanError != nil {
		return CommandOptions{}, includeCleanError
	}
	fetchFirst, fetchError := resolveBooleanOption(command, fetchFlagNameConstant, configuration.Fetch)
	if fetchError != nil {
		return CommandOptions{}, fetchError
	}
	pullFirst, pullError := resolveBooleanOption(command, pullFlagNameConstant, configuration.Pull)
	if pullError != nil {
		return CommandOptions{}, pullError
	}
	deepCheck, deepError := resolveBooleanOption(command, deepFlagNameConstant, configuration.DeepCheck)
	if deepError != nil {
		return CommandOptions{}, deepError
	}

	verboseOutput, verboseError := command.Flags().GetBool(verboseFlagNameConstant)
	if verboseError != nil {
		return CommandOptions{}, verboseError
	}
	veryVerboseOutput, veryVerboseError := command.Flags().GetBool(veryVerboseFlagNameConstant)
	if veryVerboseError != nil {
		return CommandOptions{}, veryVerboseError
	}
	if veryVerboseOutput {
		verboseOutput = true
	}

	options := CommandOptions{
		RootPath:      pathutils.NewRootPathResolver().Resolve(arguments[0]),
		IncludeClean:  includeClean,
		FetchFirst:    fetchFirst,
		PullFirst:     pullFirst,
		DeepCheck:     deepCheck,
		Verbose:       verboseOutput,
		VeryVerbose:   veryVerboseOutput,
		RemoteName:    configuration.Remote,
		RemoteTimeout: time.Duration(configuration.RemoteTimeoutSeconds) * time.Second,
	}
	return options, nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration().sanitize()
	}
	return builder.ConfigurationProvider().sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) displayCommandHelp(command *cobra.Command) error {
	if command == nil {
		return nil
	}
	return command.Help()
}

func resolveBooleanOption(command *cobra.Command, flagName string, configuredValue bool) (bool, error) {
	if !command.Flags().Changed(flagName) {
		return configuredValue, nil
	}
	return command.Flags().GetBool(flagName)
}

func validateScanRoot(fileSystem FileSystem, rootPath string) error {
	rootInfo, statError := fileSystem.Stat(rootPath)
	if statError != nil {
		return fmt.Errorf(scanRootInaccessibleTemplateConstant, rootPath, statError)
	}
	if !rootInfo.IsDir() {
		return fmt.Errorf(scanRootNotDirectoryTemplateConstant, rootPath)
	}
	return nil
}

func terminalColorEnabled(outputWriter io.Writer) bool {
	outputFile, isFile := outputWriter.(*os.File)
	if !isFile {
		return false
	}
	return isatty.IsTerminal(outputFile.Fd()) || isatty.IsCygwinTerminal(outputFile.Fd())
}
