// Package testutil provides testing utilities for the mapping engine's
// package tests.
//
// ScriptedStore wraps the in-memory triple store with per-operation
// error injection and call recording, so lifecycle tests can simulate
// store outages and inspect the exact diffs a save produced. No external
// services are required.
//
// The package also carries canonical context and constraint documents
// for tests that exercise the declarative model path.
package testutil
