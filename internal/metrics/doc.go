// Package metrics holds the Prometheus collectors of the update server.
//
// Collectors live in a private registry so tests can build as many Metrics
// values as they like without duplicate-registration panics.
package metrics
