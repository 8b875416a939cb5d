// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the run loop that drives the engine in real
// or virtual time, decoupled from any specific entrypoint like a CLI.
package app
