// Package fileop plans and applies generated-file writes.
//
// Plan compares generated content with the disk and classifies each path:
// new files are created, older roost output is updated, identical files are
// left alone, and files roost did not write are conflicts for a Resolver to
// decide. Apply validates every write before committing them together in a
// Transaction whose writes are atomic (renameio) and rolled back on failure.
package fileop
