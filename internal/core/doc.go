// Package core implements browserenv's environment: a BrowserMob Proxy
// supervisor and a Selenium supervisor run by one orchestrator, plus the
// HAR-recording test runner built on top. The public browserenv package
// wraps it.
package core
