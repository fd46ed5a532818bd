/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package testutil contains helpers shared by tests of bandwidth groups and their runtimes.
package testutil

type tHelper interface {
	Helper()
}
