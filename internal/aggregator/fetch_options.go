package aggregator

const fetchOptionFlagPrefixConstant = "--"

// Fetch option keys understood by git fetch, clone and pull.
const (
	FetchOptionDepth          = "depth"
	FetchOptionShallowSince   = "shallow-since"
	FetchOptionShallowExclude = "shallow-exclude"
)

// FetchOptionKeys lists the supported fetch options in the order they are emitted on the command line.
var FetchOptionKeys = []string{FetchOptionDepth, FetchOptionShallowSince, FetchOptionShallowExclude}

// FetchOptions maps fetch option keys to their values.
type FetchOptions map[string]string

// IsFetchOptionKey reports whether key is a supported fetch option.
func IsFetchOptionKey(key string) bool {
	for _, candidate := range FetchOptionKeys {
		if candidate == key {
			return true
		}
	}
	return false
}

// resolveFetchArguments renders the flags for a merge, falling back to the descriptor defaults per option.
// Empty values are omitted.
func resolveFetchArguments(overrides FetchOptions, defaults FetchOptions) []string {
	arguments := []string{}
	for _, key := range FetchOptionKeys {
		value, overridden := overrides[key]
		if !overridden {
			value = defaults[key]
		}
		if len(value) == 0 {
			continue
		}
		arguments = append(arguments, fetchOptionFlagPrefixConstant+key, value)
	}
	return arguments
}
