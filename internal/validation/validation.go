package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrImageNotFound is returned when the image path does not point to
	// an existing regular file
	ErrImageNotFound = errors.New("image file not found")
	// ErrNotAnISO is returned when the image filename lacks an .iso extension
	ErrNotAnISO = errors.New("not an ISO image")
)

// ValidateImagePath validates that a path is mountable:
// - It must point to an existing regular file
// - Its filename must end with .iso, case-insensitively
// The checks run in that order so a missing file reports ErrImageNotFound
// rather than a complaint about its name.
func ValidateImagePath(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %q", ErrImageNotFound, path)
	}

	if !strings.EqualFold(filepath.Ext(path), ".iso") {
		return fmt.Errorf("%w: %q does not have an .iso extension", ErrNotAnISO, path)
	}

	return nil
}
