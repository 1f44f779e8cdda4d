// Package project inspects the Go project roost is generating into: the
// enclosing module, package names of output directories, and the optional
// roost.yml settings file.
package project
