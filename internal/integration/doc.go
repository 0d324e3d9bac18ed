// Package integration provides adapters for services the board core treats
// as external collaborators: the compression codec used for .kbz exports
// and the system clipboard.
package integration
