// Package gitversion parses git --version output and memoizes the installed
// version so feature flags such as partial clones can be gated on it.
package gitversion
