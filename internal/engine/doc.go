// Package engine implements the SmartScript rule interpreter.
//
// One Engine drives one world object. It loads the object's rules
// (event -> action -> target triples), raises events pushed by callers,
// polls time-based rules once per Update, resolves targets and hands side
// effects to collaborators.
//
// ARCHITECTURE:
//
// Per-Tick Flow:
// 1. Rules installed since the last tick are merged into the live list
// 2. The live list is re-sorted by (priority, insertion order) if a retry
// raised a rule's priority
// 3. Every rule's timer is advanced; due time-based rules are dispatched
// 4. Stored timed events, then the enabled rule of the timed action list,
// are advanced the same way
// 5. Stored timed events removed during the tick are dropped
//
// Dispatch Flow:
// raiseEvent -> condition check -> processEvent (active, phase, repeat,
// charm, kind-specific check) -> chance roll -> resolveTargets -> execute
// -> follow link on success, raise priority on retry.
//
// The engine never stores object pointers. Owner, base object, invoker and
// stored target lists are ids resolved through the Objects collaborator at
// time of use; despawned objects simply stop resolving.
//
// CRITICAL PATTERNS:
//
// Depth Guard:
// Every raise, polled firing and link follow enters the DepthGuard. Nested
// dispatch beyond the ceiling (default 10) is dropped and counted.
//
// Deterministic Scheduling:
// Insertion order and retry priority come from logical clocks, and every
// random draw goes through the engine's rand source (WithRand).
//
// Copy-On-Iterate:
// Dispatch iterates a snapshot of the rule list; Install queues rules until
// the next tick.
package engine
