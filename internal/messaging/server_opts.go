package messaging

import "time"

type NatsServerOpt func(*NatsServer)

// WithStartTimeout bounds how long Start waits for the embedded broker to
// accept connections before giving up.
func WithStartTimeout(d time.Duration) NatsServerOpt {
	return func(n *NatsServer) { n.startupTimeout = d }
}

// WithHost binds the broker to host. Defaults to loopback so player and event
// subjects are only reachable from this process unless configured otherwise.
func WithHost(host string) NatsServerOpt {
	return func(n *NatsServer) { n.host = host }
}

// WithPort sets the client port of the broker; -1 asks for a random free port,
// which the internal connection discovers on its own.
func WithPort(port int) NatsServerOpt {
	return func(n *NatsServer) { n.port = port }
}
