package api

import "github.com/edgeswarm/core/node"

// StatusProvider is implemented by *node.Node: the read-only status
// endpoint is a thin collaborator over the core's own snapshot type,
// never the other way around.
type StatusProvider interface {
	Status() node.StatusSnapshot
}
