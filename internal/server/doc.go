// Package server wires and runs the application's HTTP transport.
//
// It provides lifecycle orchestration: startup, signal handling, and
// graceful shutdown. The sync API, the auth routes and the realtime
// WebSocket endpoint all share the single HTTP listener.
package server
