// Package checker is the client side of the update protocol.
//
// It asks an update server whether a newer artifact exists for an image and
// device, prints the answer and can replace a local file with the artifact.
package checker
