package compose

import "errors"

// Composition errors.
var (
	// ErrMissingRequiredNode means no part contributed a Scene or AvatarRoot node.
	ErrMissingRequiredNode = errors.New("missing required node")

	// ErrMissingSkeletonSource means no part contributed a skinned mesh with a skeleton.
	ErrMissingSkeletonSource = errors.New("missing skeleton source")

	// ErrStructuralPrecondition means a skeleton or skin violates the ordering
	// or root invariants the composition relies on.
	ErrStructuralPrecondition = errors.New("structural precondition violated")
)
