package utils

import (
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// ParseInt64OrDefault parses a decimal integer, empty input gives the default value
func ParseInt64OrDefault(s string, defaultValue int64) (int64, error) {
	s = strings.TrimSpace(s)
	if len(s) == 0 {
		return defaultValue, nil
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, xerrors.Errorf("failed to parse %q as integer: %w", s, err)
	}
	return v, nil
}
