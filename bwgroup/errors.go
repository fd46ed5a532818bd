/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package bwgroup

import "errors"

// ErrGroupClosed is returned when a connection is added to a closed group.
var ErrGroupClosed = errors.New("bandwidth group is closed")

// ErrGroupNotEmpty is returned by Close when the group still has members.
var ErrGroupNotEmpty = errors.New("bandwidth group still has members")

// ErrHandleRemoved is returned when a removed handle is used.
var ErrHandleRemoved = errors.New("connection handle is removed from its bandwidth group")

// ErrNegativeByteCount is returned when a negative number of bytes is reported.
var ErrNegativeByteCount = errors.New("negative byte count")
