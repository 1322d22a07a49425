// Package hashutil computes content digests used for notebook change detection.
package hashutil

import (
	"crypto/md5" // #nosec G501 -- content fingerprint only, not a security boundary
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// DefaultChunkSize is the read buffer size used when streaming file content
// into the digest. Large notebooks (embedded figures) are never loaded whole.
const DefaultChunkSize = 4096

// HashFile returns the lowercase hex digest of the file's content. The digest
// depends only on the bytes in the file, never on how they were read.
func HashFile(path string) (string, error) {
	return hashFile(path, DefaultChunkSize)
}

func hashFile(path string, chunkSize int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	h := md5.New() // #nosec G401 -- change detection, not cryptography
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
