/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"fmt"
	"io"
	"time"

	"github.com/mitchellh/mapstructure"
)

// DataType is a format of configuration data.
type DataType string

// Supported data formats.
const (
	DataTypeYAML DataType = "yaml"
	DataTypeJSON DataType = "json"
)

// DataProvider gives access to configuration values by dot-separated keys ("bwgroup.readRate").
// Values come from overrides, environment variables, read data and defaults, in this order of precedence.
// Typed getters return errors that already mention the key.
type DataProvider interface {
	// UseEnvVars makes the provider look up keys in environment variables with the given prefix.
	UseEnvVars(prefix string)

	// Set overrides the value of the key.
	Set(key string, value interface{})
	// SetDefault sets the value used when the key is not set anywhere else.
	SetDefault(key string, value interface{})

	// SetFromFile reads configuration data from the file.
	SetFromFile(path string, dataType DataType) error
	// SetFromReader reads configuration data from the reader.
	SetFromReader(reader io.Reader, dataType DataType) error

	// IsSet reports whether the key has a value in any source, including defaults.
	IsSet(key string) bool

	Get(key string) interface{}
	GetBool(key string) (bool, error)
	GetInt(key string) (int, error)
	GetString(key string) (string, error)
	// GetStringFromSet returns the string value only if it is one of set.
	GetStringFromSet(key string, set []string, ignoreCase bool) (string, error)
	// GetDuration accepts time.ParseDuration strings and integer nanoseconds. A missing key gives zero.
	GetDuration(key string) (time.Duration, error)
	// GetBytesCount accepts non-negative integers and human-readable sizes ("512K", "10Mi"). A missing key gives zero.
	GetBytesCount(key string) (BytesCount, error)

	// UnmarshalKey decodes a nested value (a map or a list) into rawVal using mapstructure.
	UnmarshalKey(key string, rawVal interface{}, opts ...DecoderConfigOption) error

	// WrapKeyErr wraps err with the full name of the key.
	WrapKeyErr(key string, err error) error
}

// DecoderConfigOption tunes the mapstructure decoder used by UnmarshalKey.
type DecoderConfigOption func(*mapstructure.DecoderConfig)

// WrapKeyErrIfNeeded is WrapKeyErr that keeps nil errors nil.
func WrapKeyErrIfNeeded(key string, err error) error {
	if err == nil {
		return nil
	}
	return WrapKeyErr(key, err)
}

// WrapKeyErr wraps err with the key, so the message reads "bwgroup.readRate: must be positive".
func WrapKeyErr(key string, err error) error {
	return fmt.Errorf("%s: %w", key, err)
}
