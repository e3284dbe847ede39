// Package install fetches the binaries a supervised service needs.
//
// An Artifact downloads one file over HTTP (with retries) into its install
// directory and, for zip archives, extracts it next to the download. The
// directory is assembled under a temporary name and renamed into place, so
// its presence means a complete install; an existing directory is kept
// unless Force is set. Installs of the same directory are serialized across
// processes with a lock file beside it.
package install
