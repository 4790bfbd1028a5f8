// Package health implements the standard gRPC health service for the update server.
//
// A health check lists the artifact directory, so a load balancer can take an
// instance out of rotation when its catalog disappears.
package health
