/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package bwgroup

// Direction is a direction of I/O.
type Direction int

// Directions of I/O.
const (
	DirectionRead Direction = iota
	DirectionWrite
)

// directions lists all directions in the order they are processed on refill.
var directions = [...]Direction{DirectionRead, DirectionWrite}

// Directions returns all directions in the order they are processed on refill.
func Directions() []Direction {
	return append([]Direction(nil), directions[:]...)
}

// Valid reports whether d is DirectionRead or DirectionWrite.
func (d Direction) Valid() bool {
	return d == DirectionRead || d == DirectionWrite
}

func (d Direction) String() string {
	switch d {
	case DirectionRead:
		return "read"
	case DirectionWrite:
		return "write"
	}
	return "unknown"
}
