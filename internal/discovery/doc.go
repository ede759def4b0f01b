// Package discovery walks a directory tree and reports the git repositories
// it contains. Repositories are leaves of the walk: once a repository root is
// found the walker never descends into it.
package discovery
