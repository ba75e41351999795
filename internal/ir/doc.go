// Package ir provides the rule data model shared by every SmartScript package.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Rules are immutable values; engine run-state never lives on ir.Rule
//   - World objects are referenced by ObjectID, never by pointer
//   - Every enum has a snake_case name used by rule sources and traces
//   - Canonical JSON (no floats, NFC strings) for hashes and golden files
package ir
