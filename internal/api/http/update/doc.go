// Package update implements the HTTP transport of the update server.
//
// It parses the update query, calls into a resolver and maps the resolution
// to a status code: 302 with a Location under /images, 404, 400 or 500. It
// also serves the artifact directory itself, health and metrics.
package update
