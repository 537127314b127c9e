// helpers/helpers.go
package helpers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// JSONDuration is a time.Duration that unmarshals from a JSON string such as "60s" or "2m".
type JSONDuration time.Duration

// SafeOpenFile opens a file safely after validating and resolving its path.
func SafeOpenFile(filePath string) (*os.File, error) {
	// Clean the file path lexically; ".." elements that lead above the start of the path are kept
	cleanPath := filepath.Clean(filePath)

	// Resolve any symbolic links in the clean path; a relative path stays relative
	absPath, err := filepath.EvalSymlinks(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve the absolute path: %s, error: %w", filePath, err)
	}

	return os.Open(absPath)
}

// UnmarshalJSON parses the duration from JSON string.
func (d *JSONDuration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	duration, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = JSONDuration(duration)
	return nil
}

// Duration returns the time.Duration value.
func (d JSONDuration) Duration() time.Duration {
	return time.Duration(d)
}

// String returns the string representation of the duration.
func (d JSONDuration) String() string {
	return time.Duration(d).String()
}
