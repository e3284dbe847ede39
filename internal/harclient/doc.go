// Package harclient talks to the BrowserMob Proxy REST API: it opens proxy
// ports, records traffic into a HAR (HTTP Archive), fetches the archive and
// closes the port again.
package harclient
