package scene

import "errors"

var (
	// ErrDeadEntity is returned when an operation references an entity
	// whose handle generation no longer matches the live one.
	ErrDeadEntity = errors.New("entity is dead")
	// ErrCyclicParent is returned when a parent assignment would create
	// a cycle in the hierarchy.
	ErrCyclicParent = errors.New("parent assignment would create a cycle")
	// ErrNonFiniteTransform is returned when a local or derived transform
	// contains NaN or Inf values.
	ErrNonFiniteTransform = errors.New("transform contains NaN or Inf")
	// ErrCapacityExceeded is returned when a mesh's fixed instance
	// capacity is exhausted. The scene exceeded its declared static
	// bounds; the tick must be aborted rather than the slot table grown.
	ErrCapacityExceeded = errors.New("mesh instance capacity exceeded")
)
