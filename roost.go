// Package roost generates statically typed, process-wide configuration
// singletons from declarative *.roost.yml specs.
//
// The generator lives under internal/ and is driven by the roost CLI
// (cmd/roost), usually from a go:generate directive:
//
//	//go:generate go run github.com/simonhull/firebird-suite/roost/cmd/roost generate app.roost.yml
package roost

// Version is the current roost release.
const Version = "0.1.0"
