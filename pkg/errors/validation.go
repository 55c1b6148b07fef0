package errors

import (
	"math"
	"math/big"
	"strings"
	"unicode"
)

// ValidateSignalID parses a signal identifier given on the command line or in
// a URL. Signal IDs are non-negative base-10 integers that fit a uint256.
func ValidateSignalID(raw string) (*big.Int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, New(ErrCodeInvalidSignalID, "signal id cannot be empty")
	}
	if len(s) > 78 {
		return nil, New(ErrCodeInvalidSignalID, "signal id too long: %q", s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil, New(ErrCodeInvalidSignalID, "signal id must be a non-negative integer: %q", s)
		}
	}
	id, ok := new(big.Int).SetString(s, 10)
	if !ok || id.BitLen() > 256 {
		return nil, New(ErrCodeInvalidSignalID, "signal id out of range: %q", s)
	}
	return id, nil
}

// ValidateOutputPath validates a path the rendered PNG will be written to.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - Must end in .png
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "output path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if !strings.EqualFold(pathExt(path), ".png") {
		return New(ErrCodeInvalidPath, "output must be a .png file: %q", path)
	}

	return nil
}

// ValidateCoordinates checks that lat/lon are finite and inside the WGS84 range.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return New(ErrCodeInvalidInput, "coordinates must be finite numbers")
	}
	if lat < -90 || lat > 90 {
		return New(ErrCodeInvalidInput, "latitude %v outside [-90, 90]", lat)
	}
	if lon < -180 || lon > 180 {
		return New(ErrCodeInvalidInput, "longitude %v outside [-180, 180]", lon)
	}
	return nil
}

func pathExt(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/' && path[i] != '\\'; i-- {
		if path[i] == '.' {
			return path[i:]
		}
	}
	return ""
}
