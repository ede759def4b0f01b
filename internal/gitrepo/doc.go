// Package gitrepo contains helpers for interrogating Git repositories.
//
// It exposes RepositoryManager, the repository probe backing the scan: the
// repository-root test plus the read queries (ahead count, worktree state,
// untracked files, branch-only commits, tag listings) and the user-requested
// fetch and fast-forward pull operations.
package gitrepo
