// Package execshell provides structured helpers for invoking the git binary.
//
// It wraps os/exec with logging and lifecycle observers via ShellExecutor,
// exposes OSCommandRunner for default process execution, and defines the
// abstractions unshipped uses to run git in a testable manner.
package execshell
