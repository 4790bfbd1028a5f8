// Package config defines the process configuration of the update server and
// provides helpers to load it from YAML and the environment, validate it and
// save it back.
//
// Configuration is built once at startup and only read afterwards; invalid
// values are rejected before the server binds its socket.
package config
