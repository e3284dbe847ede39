// Package fileutil holds the small filesystem helpers the installer needs:
// directory creation, existence checks, and atomic writes through a temp
// file renamed into place so a crashed download never leaves a truncated
// artifact behind.
package fileutil
