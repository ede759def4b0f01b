package pathutils

import (
	"path/filepath"
	"strings"
)

const currentDirectoryPathConstant = "."

// RootPathResolver normalizes the operator-supplied scan root.
type RootPathResolver struct {
	homeExpander *HomeExpander
}

// NewRootPathResolver constructs a RootPathResolver with the default home expansion.
func NewRootPathResolver() *RootPathResolver {
	return NewRootPathResolverWithExpander(nil)
}

// NewRootPathResolverWithExpander constructs a RootPathResolver using the provided expander.
func NewRootPathResolverWithExpander(homeExpander *HomeExpander) *RootPathResolver {
	resolvedExpander := homeExpander
	if resolvedExpander == nil {
		resolvedExpander = NewHomeExpander()
	}
	return &RootPathResolver{homeExpander: resolvedExpander}
}

// Resolve trims the candidate, expands a leading ~, and cleans the result.
// An empty candidate resolves to the current directory.
func (resolver *RootPathResolver) Resolve(candidatePath string) string {
	if resolver == nil {
		return NewRootPathResolver().Resolve(candidatePath)
	}

	trimmedCandidate := strings.TrimSpace(candidatePath)
	if len(trimmedCandidate) == 0 {
		return currentDirectoryPathConstant
	}

	expandedPath := resolver.homeExpander.Expand(trimmedCandidate)
	if len(expandedPath) == 0 {
		return currentDirectoryPathConstant
	}
	return filepath.Clean(expandedPath)
}
