// Package netutil finds free TCP ports for supervised services.
//
// PortRegistry prefers a caller-chosen port and falls back to one assigned by
// the kernel. It also remembers every port it has handed out until Release,
// so two services starting concurrently in the same process never receive
// the same port. Nothing stops an unrelated process from binding a port
// between FindFreePort and the child's own bind; a child that loses that
// race exits and is reported as a premature exit.
package netutil
