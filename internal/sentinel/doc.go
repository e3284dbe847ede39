// Package sentinel provides Error, a string type for declaring sentinel
// errors as constants. Every failure kind in browserenv (spawn failure,
// premature exit, startup timeout, unresponsive process, install failure)
// is declared with it so callers can match them with errors.Is.
package sentinel
