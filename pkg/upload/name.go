package upload

import (
	"math/rand"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// maxSuffix bounds the random part of generated names.
const maxSuffix = 1_000_000_000

// GenerateName returns a unique storage name for an upload of original:
// "<unix millis>-<random integer>" followed by the lower-cased original
// extension.
func GenerateName(now time.Time, original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + strconv.Itoa(rand.Intn(maxSuffix+1)) + ext
}

// ValidName reports whether name is a bare file name that cannot escape a
// storage directory.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return false
	}
	return filepath.Base(name) == name
}
