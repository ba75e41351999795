// Package harness runs scripted simulations of smart scripts.
//
// A scenario names a CUE rules directory, the objects of a reference world
// and a sequence of steps. The harness compiles the rules, attaches an
// engine to every scripted object, drives the steps and records every
// effect the engines apply as a trace.
//
// # Scenario Format
//
//	name: boar_aggro
//	description: "Boar casts on its attacker and shouts"
//	rules: rules            # relative to the scenario file
//	seed: 1
//	run_id: "0190c5d2-0000-7000-8000-000000000001"
//	objects:
//	  - {id: 1, kind: creature, entry: 100}
//	  - {id: 2, kind: player, pos: {x: 5, y: 0, z: 0}}
//	steps:
//	  - raise: {object: 1, event: aggro, actor: 2}
//	  - tick: 1000
//	assertions:
//	  - {type: trace_contains, action: cast, target: 2}
//	  - {type: counter, object: 1, id: 1, value: 3}
//
// Steps: tick, raise, set, spawn, despawn, reset, timed_list, counter and
// fail_casts. Exactly one may be set per step.
//
// # Assertion Types
//
//   - trace_contains: some effect matches action and optional caster, target, rule_id
//   - trace_order: actions appear in order, others may interleave
//   - trace_count: matching effects occur exactly count times
//   - counter, phase, stored: final engine state of object
//   - aura: final aura stack count on a world object
//
// # Determinism
//
// Every engine draws from a PCG source seeded with (seed, object id),
// effects are stamped by a logical clock and the run id comes from the
// scenario or a fixed generator, so the same scenario produces a
// byte-identical canonical trace for golden comparison.
package harness
