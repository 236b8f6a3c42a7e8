// Package coordinator runs aggregation units over many repositories.
//
// Run admits at most Options.Jobs units at a time. A failing unit stops the
// admission of new units without interrupting the ones already running, and
// every failure is reported as a UnitError once all admitted units finish.
package coordinator
