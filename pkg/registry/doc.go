// Package registry maps trigger event names emitted by scripts to host handlers.
package registry
