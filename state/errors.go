package state

import "errors"

var (
	ErrInvalidLink   = errors.New("invalid link")
	ErrSelfAdjacency = errors.New("self adjacency")
	ErrUnknownNode   = errors.New("unknown node")
	ErrInvalidConfig = errors.New("invalid config")
)
