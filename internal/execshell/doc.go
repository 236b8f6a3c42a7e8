// Package execshell provides structured helpers for invoking external tools.
//
// ShellExecutor wraps a CommandRunner (OSCommandRunner by default) and turns
// non-zero exits into CommandFailedError values that carry the exact command
// line. Lifecycle events flow to a CommandEventObserver so callers can choose
// between structured zap entries and human-readable console messages.
package execshell
