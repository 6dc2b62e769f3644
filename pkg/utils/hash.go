// pkg/utils/hash.go

package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strings"
)

// FileSHA256 returns the uppercase hex SHA-256 of a file.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return ReaderSHA256(f)
}

// ReaderSHA256 returns the uppercase hex SHA-256 of everything read from r.
func ReaderSHA256(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return Hex(h.Sum(nil)), nil
}

// SHA256 returns the uppercase hex SHA-256 of data.
func SHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return Hex(sum[:])
}

// Hex encodes b as uppercase hexadecimal, the form package manifests use.
func Hex(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}
