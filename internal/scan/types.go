package scan

import "time"

// StatusVector captures the four independent risk categories evaluated for a
// repository. Each flag is computed on its own; no category implies another.
type StatusVector struct {
	AheadOfUpstream    bool
	UnpushedReferences bool
	UncommittedChanges bool
	UntrackedFiles     bool
}

// AnyFlagSet reports whether at least one risk category fired.
func (vector StatusVector) AnyFlagSet() bool {
	return vector.AheadOfUpstream || vector.UnpushedReferences || vector.UncommittedChanges || vector.UntrackedFiles
}

// CommandOptions captures the configurable parameters for a scan run.
type CommandOptions struct {
	RootPath      string
	IncludeClean  bool
	FetchFirst    bool
	PullFirst     bool
	DeepCheck     bool
	Verbose       bool
	VeryVerbose   bool
	RemoteName    string
	RemoteTimeout time.Duration
}
