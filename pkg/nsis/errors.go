// pkg/nsis/errors.go

package nsis

import "errors"

var (
	// ErrNotNsis means no NSIS first header was found. The file may be
	// another installer format.
	ErrNotNsis = errors.New("not an NSIS installer")

	ErrMalformedHeader        = errors.New("malformed NSIS header")
	ErrUnsupportedCompression = errors.New("unsupported NSIS header compression")
	ErrTruncated              = errors.New("unexpected end of NSIS data")
)
