package scan

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/driftworks/unshipped/internal/report"
)

const (
	fetchFailedMessageConstant             = "unable to fetch from the remote"
	pullFailedMessageConstant              = "unable to fast-forward from upstream"
	dirtyQueryFailedMessageConstant        = "unable to review working tree changes"
	untrackedQueryFailedMessageConstant    = "unable to review untracked files"
	changedListFailedMessageConstant       = "unable to list changed files"
	untrackedListFailedMessageConstant     = "unable to list untracked files"
	statusTextFailedMessageConstant        = "unable to collect status output"
	repositoryPathLogFieldConstant         = "repository_path"
	walkerNotConfiguredMessageConstant     = "scan service requires a repository walker"
	probeNotConfiguredMessageConstant      = "scan service requires a repository probe"
	reconcilerNotConfiguredMessageConstant = "scan service requires a reference reconciler"
	rendererNotConfiguredMessageConstant   = "scan service requires a record renderer"
	loggerNotConfiguredMessageConstant     = "scan service requires a logger"
)

// Initialization errors returned by NewService.
var (
	ErrWalkerNotConfigured     = errors.New(walkerNotConfiguredMessageConstant)
	ErrProbeNotConfigured      = errors.New(probeNotConfiguredMessageConstant)
	ErrReconcilerNotConfigured = errors.New(reconcilerNotConfiguredMessageConstant)
	ErrRendererNotConfigured   = errors.New(rendererNotConfiguredMessageConstant)
	ErrLoggerNotConfigured     = errors.New(loggerNotConfiguredMessageConstant)
)

// Service walks the scan root and reports every repository holding work that
// has not reached its remote.
type Service struct {
	repositoryWalker    RepositoryWalker
	repositoryProbe     RepositoryProbe
	referenceReconciler ReferenceReconciler
	recordRenderer      RecordRenderer
	logger              *zap.Logger
}

// NewService constructs a Service using the provided collaborators.
func NewService(repositoryWalker RepositoryWalker, repositoryProbe RepositoryProbe, referenceReconciler ReferenceReconciler, recordRenderer RecordRenderer, logger *zap.Logger) (*Service, error) {
	if repositoryWalker == nil {
		return nil, ErrWalkerNotConfigured
	}
	if repositoryProbe == nil {
		return nil, ErrProbeNotConfigured
	}
	if referenceReconciler == nil {
		return nil, ErrReconcilerNotConfigured
	}
	if recordRenderer == nil {
		return nil, ErrRendererNotConfigured
	}
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	return &Service{
		repositoryWalker:    repositoryWalker,
		repositoryProbe:     repositoryProbe,
		referenceReconciler: referenceReconciler,
		recordRenderer:      recordRenderer,
		logger:              logger,
	}, nil
}

// Run evaluates every repository beneath the root and renders a record for
// each flagged repository as soon as it is evaluated. Clean repositories are
// reported only when the options request them. Per-repository query failures
// degrade to unset flags so one unhealthy repository cannot abort the sweep.
func (service *Service) Run(executionContext context.Context, options CommandOptions) error {
	return service.repositoryWalker.Walk(executionContext, options.RootPath, func(repositoryPath string) error {
		if contextError := executionContext.Err(); contextError != nil {
			return contextError
		}

		record, statusVector := service.evaluateRepository(executionContext, repositoryPath, options)
		if !options.IncludeClean && !statusVector.AnyFlagSet() {
			return nil
		}
		return service.recordRenderer.RenderRecord(record)
	})
}

// evaluateRepository runs the requested remote operations first so the
// classification sees refreshed tracking references.
func (service *Service) evaluateRepository(executionContext context.Context, repositoryPath string, options CommandOptions) (report.Record, StatusVector) {
	record := report.Record{RepositoryPath: repositoryPath}

	if options.FetchFirst {
		record.FetchOutput = service.fetchRepository(executionContext, repositoryPath, options.RemoteTimeout)
	}
	if options.PullFirst {
		record.PullOutput = service.pullRepository(executionContext, repositoryPath, options.RemoteTimeout)
	}

	if options.DeepCheck {
		record.ReferenceList = service.referenceReconciler.UnpushedReferences(executionContext, repositoryPath, options.RemoteName)
	}

	statusVector := service.classifyRepository(executionContext, repositoryPath, len(record.ReferenceList) > 0)
	record.AheadOfUpstream = statusVector.AheadOfUpstream
	record.UnpushedReferences = statusVector.UnpushedReferences
	record.UncommittedChanges = statusVector.UncommittedChanges
	record.UntrackedFiles = statusVector.UntrackedFiles

	if options.Verbose || options.VeryVerbose {
		service.attachReportListings(executionContext, repositoryPath, &record)
	}
	if options.VeryVerbose {
		record.StatusText = service.worktreeStatusText(executionContext, repositoryPath)
	}

	return record, statusVector
}

func (service *Service) classifyRepository(executionContext context.Context, repositoryPath string, hasUnpushedReferences bool) StatusVector {
	statusVector := StatusVector{UnpushedReferences: hasUnpushedReferences}

	aheadCount, comparisonAvailable := service.repositoryProbe.CountAheadOfUpstream(executionContext, repositoryPath)
	statusVector.AheadOfUpstream = comparisonAvailable && aheadCount > 0

	worktreeDirty, dirtyError := service.repositoryProbe.IsWorktreeDirty(executionContext, repositoryPath)
	if dirtyError != nil {
		service.logger.Warn(dirtyQueryFailedMessageConstant,
			zap.String(repositoryPathLogFieldConstant, repositoryPath),
			zap.Error(dirtyError))
	}
	statusVector.UncommittedChanges = dirtyError == nil && worktreeDirty

	hasUntrackedFiles, untrackedError := service.repositoryProbe.HasUntrackedFiles(executionContext, repositoryPath)
	if untrackedError != nil {
		service.logger.Warn(untrackedQueryFailedMessageConstant,
			zap.String(repositoryPathLogFieldConstant, repositoryPath),
			zap.Error(untrackedError))
	}
	statusVector.UntrackedFiles = untrackedError == nil && hasUntrackedFiles

	return statusVector
}

func (service *Service) fetchRepository(executionContext context.Context, repositoryPath string, remoteTimeout time.Duration) string {
	remoteContext, cancelRemoteOperation := remoteOperationContext(executionContext, remoteTimeout)
	defer cancelRemoteOperation()

	fetchOutput, fetchError := service.repositoryProbe.Fetch(remoteContext, repositoryPath)
	if fetchError != nil {
		service.logger.Warn(fetchFailedMessageConstant,
			zap.String(repositoryPathLogFieldConstant, repositoryPath),
			zap.Error(fetchError))
	}
	return fetchOutput
}

func (service *Service) pullRepository(executionContext context.Context, repositoryPath string, remoteTimeout time.Duration) string {
	remoteContext, cancelRemoteOperation := remoteOperationContext(executionContext, remoteTimeout)
	defer cancelRemoteOperation()

	pullOutput, pullError := service.repositoryProbe.Pull(remoteContext, repositoryPath)
	if pullError != nil {
		service.logger.Warn(pullFailedMessageConstant,
			zap.String(repositoryPathLogFieldConstant, repositoryPath),
			zap.Error(pullError))
	}
	return pullOutput
}

// attachReportListings fills the per-flag file and reference listings shown by
// verbose output. Only fired categories are queried.
func (service *Service) attachReportListings(executionContext context.Context, repositoryPath string, record *report.Record) {
	if record.UncommittedChanges {
		changedFiles, changedError := service.repositoryProbe.ListChangedFiles(executionContext, repositoryPath)
		if changedError != nil {
			service.logger.Warn(changedListFailedMessageConstant,
				zap.String(repositoryPathLogFieldConstant, repositoryPath),
				zap.Error(changedError))
		}
		record.ChangedFileList = changedFiles
	}
	if record.UntrackedFiles {
		untrackedFiles, untrackedError := service.repositoryProbe.ListUntrackedFiles(executionContext, repositoryPath)
		if untrackedError != nil {
			service.logger.Warn(untrackedListFailedMessageConstant,
				zap.String(repositoryPathLogFieldConstant, repositoryPath),
				zap.Error(untrackedError))
		}
		record.UntrackedFileList = untrackedFiles
	}
}

func (service *Service) worktreeStatusText(executionContext context.Context, repositoryPath string) string {
	statusText, statusError := service.repositoryProbe.WorktreeStatusText(executionContext, repositoryPath)
	if statusError != nil {
		service.logger.Warn(statusTextFailedMessageConstant,
			zap.String(repositoryPathLogFieldConstant, repositoryPath),
			zap.Error(statusError))
		return ""
	}
	return statusText
}

func remoteOperationContext(parentContext context.Context, remoteTimeout time.Duration) (context.Context, context.CancelFunc) {
	if remoteTimeout <= 0 {
		return parentContext, func() {}
	}
	return context.WithTimeout(parentContext, remoteTimeout)
}
