// Package server runs the update server process.
//
// Run builds the configuration, wires the catalog reader, resolver, metrics
// and HTTP handlers together, optionally starts the gRPC health service and
// shuts everything down gracefully when its context is canceled.
package server
