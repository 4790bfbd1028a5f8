// Package common holds helpers shared by several services.
//
// It provides a lightweight HTTP client for the update endpoint that never
// follows redirects, so the caller sees the 302 and its Location itself.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
