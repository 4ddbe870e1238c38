package cloud

import "github.com/Carmen-Shannon/oxy-clouds/engine/game_object"

// BoundsSynchronizerBuilderOption is a functional option for configuring a BoundsSynchronizer.
type BoundsSynchronizerBuilderOption func(*boundsSynchronizer)

// WithBoundsTarget sets the game object whose transform defines the cloud box.
//
// Parameters:
//   - obj: the cloud volume's game object
//
// Returns:
//   - BoundsSynchronizerBuilderOption: option function to apply
func WithBoundsTarget(obj game_object.GameObject) BoundsSynchronizerBuilderOption {
	return func(b *boundsSynchronizer) {
		b.target = obj
	}
}

// WithCanonicalBounds controls whether corners are reordered so Min <= Max. Disable it to
// write the raw position -/+ scale/2 corners for negatively scaled objects.
//
// Parameters:
//   - canonical: true to reorder corners (default)
//
// Returns:
//   - BoundsSynchronizerBuilderOption: option function to apply
func WithCanonicalBounds(canonical bool) BoundsSynchronizerBuilderOption {
	return func(b *boundsSynchronizer) {
		b.canonical = canonical
	}
}
