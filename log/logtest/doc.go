/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package logtest provides implementation of log.FieldLogger that allows writing tests for logging functionality.
// Recorder keeps every logged entry in memory so tests may assert on messages and fields.
package logtest
