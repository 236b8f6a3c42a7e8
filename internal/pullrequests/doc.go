// Package pullrequests reports the GitHub status of pull requests merged into aggregated branches.
//
// A merge counts as a pull request when its remote is hosted on github.com and
// its ref has the form refs/pull/<number>/head (the refs/ prefix is optional).
package pullrequests
