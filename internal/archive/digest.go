package archive

import (
	"crypto/sha1" //nolint:gosec // The archive's digest scheme is SHA-1; not used for security.
	"encoding/base32"
	"io"
)

// Digest computes the archive's content digest for a byte stream:
// SHA-1, base32-encoded (RFC 4648). A 20-byte SHA-1 encodes to exactly
// 32 characters, so there is never padding.
//
// Using the archive's own scheme means digests reported by the CDX index
// and digests computed over downloaded bytes live in one namespace, which
// is what makes cross-run de-duplication against index metadata possible.
func Digest(r io.Reader) (string, error) {
	h := sha1.New() //nolint:gosec // See above.
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return base32.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// DigestBytes computes the archive content digest of b.
func DigestBytes(b []byte) string {
	h := sha1.New() //nolint:gosec // See above.
	h.Write(b)
	return base32.StdEncoding.EncodeToString(h.Sum(nil))
}
