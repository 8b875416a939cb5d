// Package engine runs a loaded program. It is the facade the application
// drives: it turns a config.Program into actors and compiled scripts, owns
// the scheduler, the variables container and the note timer, and after
// every tick emits the pen, transform and note events an external renderer
// or audio engine consumes.
//
// # Lifecycle
//
// New creates an empty engine. LoadProgram builds the program exactly once.
// Start queues every `when_started` script; each Tick then runs one
// scheduling pass at the clock's current instant. Pause freezes scripts and
// notes together, and Resume shifts every pending deadline by the time spent
// paused. Stop ends every script and sound and removes all clones.
//
// # Concurrency
//
// Public methods are safe for concurrent use; they serialize on one mutex.
// Scripts, brick actions and formula evaluation all run inside Tick while
// that mutex is held, so none of them may call back into the public API.
package engine
