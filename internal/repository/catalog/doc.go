// Package catalog lists the artifact directory.
//
// The DirectoryReader reads the directory fresh on every call and exposes a
// Reader interface that the resolver service depends on.
package catalog
