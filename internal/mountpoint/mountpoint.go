package mountpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"strings"
)

// hashLen is the number of hex characters of the path hash kept in the
// mount directory name.
const hashLen = 8

var (
	// unsafeChars matches every character not allowed in a mount directory name
	unsafeChars = regexp.MustCompile(`[^\w.-]`)
	// underscoreRuns matches runs of two or more underscores
	underscoreRuns = regexp.MustCompile(`_{2,}`)
)

// Sanitize makes a string safe for use as a directory name. The result
// contains only alphanumerics, underscore, dot and hyphen, with no
// underscore runs and no leading or trailing underscore. It is total:
// any input (including the empty string) yields a valid result.
func Sanitize(name string) string {
	name = unsafeChars.ReplaceAllString(name, "_")
	name = underscoreRuns.ReplaceAllString(name, "_")
	return strings.Trim(name, "_")
}

// Resolver derives mount point directories under a base directory.
type Resolver struct {
	baseDir string
}

// NewResolver creates a resolver rooted at baseDir
func NewResolver(baseDir string) *Resolver {
	return &Resolver{
		baseDir: baseDir,
	}
}

// Resolve maps an absolute image path to its mount point directory.
// The directory name combines the image filename stem with the first 8
// hex characters of the SHA-256 of the full path, so the same image
// always resolves to the same directory while images with identical
// names in different directories get distinct ones. Pure function: no
// filesystem access, no error returns.
func (r *Resolver) Resolve(imagePath string) string {
	base := filepath.Base(imagePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	sum := sha256.Sum256([]byte(imagePath))
	hash := hex.EncodeToString(sum[:])[:hashLen]

	return filepath.Join(r.baseDir, Sanitize(stem+"_"+hash))
}
