package server

// Server is the lifecycle contract shared by the transport servers. RunServer
// blocks until shutdown is requested; Shutdown releases the listener and any
// in-flight resources.
type Server interface {
	RunServer()
	Shutdown()
}
