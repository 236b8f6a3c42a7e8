// Package repoconfig loads repository aggregation settings from YAML or JSON files.
//
// Each top-level key is a working directory; its value declares remotes,
// merges, the target branch, and optional patches, post hooks, fetch_all and
// fetch defaults. Merges may be written as "remote ref" strings or as mappings
// carrying per-merge fetch options. Every entry is normalized into an
// aggregator.Descriptor.
package repoconfig
