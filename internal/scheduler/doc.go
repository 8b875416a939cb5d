// Package scheduler drives every script of every actor, one tick at a time.
//
// # Why Scheduler Exists
//
// Programs are made of many small scripts that all appear to run at once.
// The scheduler gives them a single, deterministic order of execution:
//
//   - **Cooperative:** A script runs until it reaches a suspension point (a
//     wait, the end of a loop iteration or a broadcast-and-wait) and then
//     yields to the next one. Nothing runs in parallel.
//   - **Stable Order:** Scripts run in registration order on every tick, so a
//     script always sees the writes of scripts that ran before it.
//   - **Isolated Faults:** A failing brick stops its own script and nothing
//     else. A tick never aborts.
//
// # How It Works
//
// Each call to Tick performs one pass:
//  1. Apply stop requests made since the last check.
//  2. Start the scripts whose triggers were queued before this tick.
//     Broadcasts, taps, collisions, clone starts and program start are all
//     queued, so nothing triggered during tick N starts before tick N+1.
//  3. Step every Running script, and every Suspended script whose resume
//     condition holds, in registration order.
//  4. Drop the scripts of removed actors.
//
// # Relationship with Other Components
//
//   - **Script:** Holds the compiled bricks and the execution stack.
//   - **Host:** The engine, which owns actors and variables and therefore
//     performs clone creation and deletion on the scheduler's behalf.
//   - **Reporter:** Receives a SchedulerFault record for every faulted script.
package scheduler
