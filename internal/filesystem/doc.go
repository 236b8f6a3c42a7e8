// Package filesystem abstracts the file reads performed while aggregating so tests can substitute in-memory trees.
package filesystem
