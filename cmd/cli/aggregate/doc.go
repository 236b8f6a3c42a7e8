// Package aggregate provides the aggregate, show-closed-prs and show-all-prs commands.
//
// All three read the repository file named by --repos and walk the selected
// working directories through the coordinator; aggregate drives the aggregation
// engine while the pull request commands query GitHub.
package aggregate
