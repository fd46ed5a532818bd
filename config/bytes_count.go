/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"code.cloudfoundry.org/bytefmt"
	"gopkg.in/yaml.v3"
)

// BytesCount is a number of bytes that may be written as an integer or in human-readable form
// ("512K", "1M", "2Mi"). Rates of bandwidth groups are configured as BytesCount per second.
type BytesCount uint64

// ParseBytesCount parses human-readable or plain integer number of bytes.
func ParseBytesCount(s string) (BytesCount, error) {
	v := strings.TrimSpace(s)
	if num, err := strconv.ParseInt(v, 10, 64); err == nil {
		if num < 0 {
			return 0, fmt.Errorf("negative value is not allowed: %d", num)
		}
		return BytesCount(num), nil
	}
	// k8s power-of-two suffixes ("Mi") are understood by bytefmt without the trailing "i".
	for _, suffix := range [...]string{"Ki", "Mi", "Gi", "Ti", "Pi", "Ei"} {
		if strings.HasSuffix(v, suffix) {
			v = v[:len(v)-1]
			break
		}
	}
	num, err := bytefmt.ToBytes(v)
	if err != nil {
		return 0, fmt.Errorf("invalid bytes format (%s): %w", s, err)
	}
	return BytesCount(num), nil
}

// String returns the human-readable representation.
func (b BytesCount) String() string {
	return bytefmt.ByteSize(uint64(b))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *BytesCount) UnmarshalText(text []byte) error {
	v, err := ParseBytesCount(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// UnmarshalJSON allows decoding from both JSON numbers and strings.
func (b *BytesCount) UnmarshalJSON(data []byte) error {
	return b.UnmarshalText([]byte(strings.Trim(string(data), `"`)))
}

// UnmarshalYAML allows decoding from both YAML integers and strings.
func (b *BytesCount) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("invalid bytes format: %w", err)
	}
	return b.UnmarshalText([]byte(s))
}

// MarshalJSON encodes as a human-readable string.
func (b BytesCount) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// MarshalYAML encodes as a human-readable string.
func (b BytesCount) MarshalYAML() (interface{}, error) {
	return b.String(), nil
}
