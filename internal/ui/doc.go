// Package ui provides helpers for formatting human-readable console output.
//
// ConsoleCommandEventLogger turns git, shell, and curl lifecycle events into
// short sentences for operators running gitagg with the console log format.
package ui
