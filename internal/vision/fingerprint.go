package vision

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/png"
)

// Fingerprint returns the hex SHA-256 digest of the image serialized
// as PNG. PNG is lossless, so the same normalized pixels always hash
// identically; the digest is stored with every row for audit and lets
// resubmitted scans of the same slip be spotted.
func Fingerprint(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image for hashing: %w", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}
