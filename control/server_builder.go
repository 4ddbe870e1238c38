package control

import "github.com/Carmen-Shannon/oxy-clouds/engine/cloud"

// ServerBuilderOption configures a control server.
type ServerBuilderOption func(*server)

// WithQueue sets the command queue that decoded requests are pushed onto.
//
// Parameters:
//   - q: the queue shared with the cloud synchronizer
//
// Returns:
//   - ServerBuilderOption: the option
func WithQueue(q *cloud.CommandQueue) ServerBuilderOption {
	return func(s *server) {
		s.queue = q
	}
}

// WithAddress sets the TCP listen address. The default is 127.0.0.1:0.
func WithAddress(addr string) ServerBuilderOption {
	return func(s *server) {
		if addr != "" {
			s.address = addr
		}
	}
}

// WithPath sets the HTTP path of the control socket.
func WithPath(path string) ServerBuilderOption {
	return func(s *server) {
		if path != "" {
			s.path = path
		}
	}
}
