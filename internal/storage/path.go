package storage

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
)

const (
	FormatCSV     = "csv"
	FormatPNG     = "png"
	FormatParquet = "parquet"
)

// ErrInvalidPath reports an object path that could not be built from its parts.
var ErrInvalidPath = errors.New("invalid object path")

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildReportObjectPath returns <session>/<turn>/item-<n>.<format>. Items are
// numbered from 1.
func BuildReportObjectPath(sessionID, turnID string, item int, format string) (string, error) {
	if err := validatePathComponent(sessionID, "session id"); err != nil {
		return "", err
	}
	if err := validatePathComponent(turnID, "turn id"); err != nil {
		return "", err
	}
	if item < 1 {
		return "", fmt.Errorf("%w: item must be >= 1", ErrInvalidPath)
	}
	if _, ok := ContentType(format); !ok {
		return "", fmt.Errorf("%w: unsupported export format %q", ErrInvalidPath, format)
	}
	return path.Join(sessionID, turnID, fmt.Sprintf("item-%d.%s", item, strings.ToLower(format))), nil
}

// ContentType maps an export format to its MIME type.
func ContentType(format string) (string, bool) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return "text/csv; charset=utf-8", true
	case FormatPNG:
		return "image/png", true
	case FormatParquet:
		return "application/vnd.apache.parquet", true
	}
	return "", false
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("%w: invalid %s: %q", ErrInvalidPath, field, value)
	}
	return nil
}
