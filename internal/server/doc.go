// Package server contains the core of the chat relay: the session
// registry, the per-connection protocol state machine, the bounded
// listener/dispatcher, and their configuration.
package server
