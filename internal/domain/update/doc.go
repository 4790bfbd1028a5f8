// Package update contains the update-resolution engine.
//
// It decodes opaque artifact filenames into Candidate records according to a
// Layout, filters them against a client Request and reduces the result to a
// Resolution: no update, update available, or an ambiguous catalog error.
// Versions are opaque tokens compared byte for byte.
package update
