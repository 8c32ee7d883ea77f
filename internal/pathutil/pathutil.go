// Package pathutil holds the small path and value helpers shared across
// the Operator: object-storage scheme normalization, path purification,
// and the numeric/string guards the raw-config fragments rely on.
package pathutil

import (
	"path"
	"strconv"
	"strings"
)

// s3Schemes is the set of object-storage URI schemes the Operator
// recognizes.
var s3Schemes = map[string]bool{
	"s3":  true,
	"s3a": true,
	"s3n": true,
	"s3p": true,
}

// IsS3Path reports whether p has one of the recognized S3 schemes.
func IsS3Path(p string) bool {
	scheme, _, ok := splitScheme(p)
	return ok && s3Schemes[scheme]
}

// PurePath strips "<scheme>://" and any leading "/" from p.
func PurePath(p string) string {
	_, rest, ok := splitScheme(p)
	if !ok {
		rest = p
	}
	return strings.TrimLeft(rest, "/")
}

// ReviseToS3pSchema returns p with its scheme forced to "s3p", leaving
// non-S3 paths untouched.
func ReviseToS3pSchema(p string) string {
	scheme, rest, ok := splitScheme(p)
	if !ok || !s3Schemes[scheme] {
		return p
	}
	return "s3p://" + rest
}

// splitScheme splits p into its "scheme" and the remainder after "://".
// ok is false when p has no "://" separator.
func splitScheme(p string) (scheme, rest string, ok bool) {
	idx := strings.Index(p, "://")
	if idx < 0 {
		return "", "", false
	}
	return p[:idx], p[idx+len("://"):], true
}

// Basename returns the final path segment, as used to derive a library's
// local filename from its object-storage key.
func Basename(p string) string {
	return path.Base(PurePath(p))
}

// SplitBucketAndKey splits a pure (scheme-stripped) S3 path into its
// bucket and object key, the first "/"-separated segment being the
// bucket. The Submission Engine's object-key resolution
// (submission.ResolveObjectKey) goes through here; the init-container
// command builder uses clusterdef.S3PotaConf.RevisePath instead.
func SplitBucketAndKey(purePath string) (bucket, key string) {
	idx := strings.Index(purePath, "/")
	if idx < 0 {
		return purePath, ""
	}
	return purePath[:idx], purePath[idx+1:]
}

// PositiveFloatOrDefault returns v if v > 0, else def. Used by CpuConf and
// MemConf's numeric guards.
func PositiveFloatOrDefault(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

// AtLeast lower-bounds v to min. Used by ParConf and
// StateBackendConf.checkpointNumRetained's numeric guards.
func AtLeast(v, min int) int {
	if v < min {
		return min
	}
	return v
}

// NonBlank reports whether s is non-empty after trimming whitespace.
func NonBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}

// FormatFloat renders f in the canonical string form Flink config values
// use: the shortest decimal representation that round-trips.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
