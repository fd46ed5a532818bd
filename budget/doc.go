/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package budget provides the shared byte budget used by bandwidth groups.
//
// A Budget tracks remaining read and write credit independently. Credit is consumed by the
// number of bytes reported after every I/O operation and is replenished once per tick,
// when the owner calls Advance. Credit may become negative: a single large transfer
// is charged in full and the resulting overdraft is repaid by subsequent ticks.
//
// TokenBucket is the default implementation. It is backed by golang.org/x/time/rate limiters
// (one per direction) evaluated at the instant of the last tick.
package budget
