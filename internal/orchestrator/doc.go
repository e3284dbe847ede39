// Package orchestrator starts and stops a fixed set of services together.
//
// Start installs and starts every service concurrently. The first real
// failure cancels the siblings still starting; the returned *StartError
// keeps that failure as primary and attaches every other one. Services that
// did start are left running: the caller always follows with Stop, which
// stops every service in parallel and reports each outcome.
package orchestrator
