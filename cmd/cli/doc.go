// Package cli constructs the gitagg command-line interface: the Cobra command
// hierarchy, the layered application settings, and the zap loggers shared by
// every command.
package cli
