// Package probe issues the readiness probes for waitfor.
//
// This package is internal to waitfor and handles a single probe attempt:
// one GET against the target's version endpoint and the classification of
// whatever comes back. The retry loop lives in the root package; probe has
// no notion of intervals or budgets.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with timeout and size limits
//   - [Prober]: builds the version URL and classifies responses
//   - [Report]: classified outcome of one probe attempt
//
// Users of the waitfor library should not need to interact with this
// package directly.
package probe
