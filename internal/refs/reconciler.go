package refs

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/driftworks/unshipped/internal/gitrepo"
)

const (
	queriesNotConfiguredMessageConstant = "reference reconciler requires repository queries"
	loggerNotConfiguredMessageConstant  = "reference reconciler requires a logger"
	commitQueryFailedMessageConstant    = "unable to list branch-only commits"
	localTagQueryFailedMessageConstant  = "unable to list local tags"
	remoteTagQueryFailedMessageConstant = "unable to list remote tags; reporting every local tag as unpushed"
	repositoryPathLogFieldConstant      = "repository_path"
	remoteNameLogFieldConstant          = "remote_name"
)

// Initialization errors returned by NewReconciler.
var (
	ErrQueriesNotConfigured = errors.New(queriesNotConfiguredMessageConstant)
	ErrLoggerNotConfigured  = errors.New(loggerNotConfiguredMessageConstant)
)

// ReferenceKind distinguishes commit references from tag references.
type ReferenceKind string

// Reference kinds produced by the reconciler.
const (
	ReferenceKindCommit ReferenceKind = "commit"
	ReferenceKindTag    ReferenceKind = "tag"
)

// ReferenceDescriptor identifies one locally referenced object with no
// counterpart on the remote. Commit references carry ShortHash and Subject;
// tag references carry TagName.
type ReferenceDescriptor struct {
	Kind      ReferenceKind
	ShortHash string
	Subject   string
	TagName   string
}

// ReferenceQueries lists the repository references the reconciler compares.
type ReferenceQueries interface {
	ListBranchOnlyCommits(executionContext context.Context, repositoryPath string) ([]gitrepo.CommitSummary, error)
	ListLocalTags(executionContext context.Context, repositoryPath string) ([]string, error)
	ListRemoteTags(executionContext context.Context, repositoryPath string, remoteName string) ([]string, error)
}

// Reconciler computes which locally referenced commits and tags are absent
// from a repository's remote.
type Reconciler struct {
	referenceQueries ReferenceQueries
	logger           *zap.Logger
	remoteTimeout    time.Duration
}

// NewReconciler constructs a Reconciler around the provided queries. The
// remote timeout bounds the remote tag listing; zero disables the bound.
func NewReconciler(referenceQueries ReferenceQueries, logger *zap.Logger, remoteTimeout time.Duration) (*Reconciler, error) {
	if referenceQueries == nil {
		return nil, ErrQueriesNotConfigured
	}
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	return &Reconciler{referenceQueries: referenceQueries, logger: logger, remoteTimeout: remoteTimeout}, nil
}

// UnpushedReferences returns the commits reachable only from local branches,
// newest first, followed by the local tags missing from the named remote in
// local enumeration order. Failed queries degrade to empty results so one
// unhealthy repository cannot abort a scan. Tag comparison is an exact name
// match; the remote is only contacted when local tags exist.
func (reconciler *Reconciler) UnpushedReferences(executionContext context.Context, repositoryPath string, remoteName string) []ReferenceDescriptor {
	unpushedReferences := []ReferenceDescriptor{}

	branchOnlyCommits, commitQueryError := reconciler.referenceQueries.ListBranchOnlyCommits(executionContext, repositoryPath)
	if commitQueryError != nil {
		reconciler.logger.Warn(commitQueryFailedMessageConstant,
			zap.String(repositoryPathLogFieldConstant, repositoryPath),
			zap.Error(commitQueryError))
	}
	for _, commitSummary := range branchOnlyCommits {
		unpushedReferences = append(unpushedReferences, ReferenceDescriptor{
			Kind:      ReferenceKindCommit,
			ShortHash: commitSummary.ShortHash,
			Subject:   commitSummary.Subject,
		})
	}

	localTagNames, localTagQueryError := reconciler.referenceQueries.ListLocalTags(executionContext, repositoryPath)
	if localTagQueryError != nil {
		reconciler.logger.Warn(localTagQueryFailedMessageConstant,
			zap.String(repositoryPathLogFieldConstant, repositoryPath),
			zap.Error(localTagQueryError))
	}
	if len(localTagNames) == 0 {
		return unpushedReferences
	}

	remoteTagSet := reconciler.remoteTagSet(executionContext, repositoryPath, remoteName)
	for _, localTagName := range localTagNames {
		if _, tagPushed := remoteTagSet[localTagName]; tagPushed {
			continue
		}
		unpushedReferences = append(unpushedReferences, ReferenceDescriptor{Kind: ReferenceKindTag, TagName: localTagName})
	}
	return unpushedReferences
}

func (reconciler *Reconciler) remoteTagSet(executionContext context.Context, repositoryPath string, remoteName string) map[string]struct{} {
	remoteContext := executionContext
	if reconciler.remoteTimeout > 0 {
		var cancelRemoteContext context.CancelFunc
		remoteContext, cancelRemoteContext = context.WithTimeout(executionContext, reconciler.remoteTimeout)
		defer cancelRemoteContext()
	}

	remoteTagNames, remoteTagQueryError := reconciler.referenceQueries.ListRemoteTags(remoteContext, repositoryPath, remoteName)
	if remoteTagQueryError != nil {
		reconciler.logger.Warn(remoteTagQueryFailedMessageConstant,
			zap.String(repositoryPathLogFieldConstant, repositoryPath),
			zap.String(remoteNameLogFieldConstant, remoteName),
			zap.Error(remoteTagQueryError))
		return map[string]struct{}{}
	}

	remoteTagSet := make(map[string]struct{}, len(remoteTagNames))
	for _, remoteTagName := range remoteTagNames {
		remoteTagSet[remoteTagName] = struct{}{}
	}
	return remoteTagSet
}
