// Package resolver answers update requests against the current catalog.
//
// Each call lists the artifact directory once, decodes the filenames, and
// hands the matches to the decision engine. Nothing is cached between calls.
package resolver
