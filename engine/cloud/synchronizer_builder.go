package cloud

import "github.com/Carmen-Shannon/oxy-clouds/engine/game_object"

// SynchronizerBuilderOption is a functional option for configuring a Synchronizer.
type SynchronizerBuilderOption func(*synchronizer)

// WithTarget sets the game object whose property block receives the cloud parameters.
//
// Parameters:
//   - obj: the cloud volume's game object
//
// Returns:
//   - SynchronizerBuilderOption: option function to apply
func WithTarget(obj game_object.GameObject) SynchronizerBuilderOption {
	return func(s *synchronizer) {
		s.target = obj
	}
}

// WithParams sets the initial parameters. They are clamped during construction.
//
// Parameters:
//   - p: the initial parameters
//
// Returns:
//   - SynchronizerBuilderOption: option function to apply
func WithParams(p Params) SynchronizerBuilderOption {
	return func(s *synchronizer) {
		s.params = p
	}
}

// WithCommandQueue shares an existing command queue, e.g. one fed by a remote control endpoint.
//
// Parameters:
//   - q: the queue
//
// Returns:
//   - SynchronizerBuilderOption: option function to apply
func WithCommandQueue(q *CommandQueue) SynchronizerBuilderOption {
	return func(s *synchronizer) {
		s.queue = q
	}
}

// WithRegenerators registers generators that receive regenerate commands.
//
// Parameters:
//   - regenerators: the generators
//
// Returns:
//   - SynchronizerBuilderOption: option function to apply
func WithRegenerators(regenerators ...Regenerator) SynchronizerBuilderOption {
	return func(s *synchronizer) {
		for _, r := range regenerators {
			if r != nil {
				s.regenerators = append(s.regenerators, r)
			}
		}
	}
}
