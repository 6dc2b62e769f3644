// pkg/inno/errors.go

package inno

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInno means no setup loader offset table was found. The file may be
	// another installer format.
	ErrNotInno = errors.New("not an Inno Setup installer")

	ErrUnsupportedVersion     = errors.New("unsupported Inno Setup version")
	ErrUnknownVersion         = errors.New("unknown Inno Setup version")
	ErrUnknownLoaderSignature = errors.New("unknown setup loader signature")
	ErrMalformedHeader        = errors.New("malformed Inno Setup header")
	ErrChecksumMismatch       = errors.New("CRC32 checksum mismatch")
	ErrTruncated              = errors.New("unexpected end of Inno Setup data")
	ErrDecode                 = errors.New("failed to decode Inno Setup data")
)

// ChecksumError reports the expected and computed CRC32 of a checked region.
type ChecksumError struct {
	Region   string
	Expected uint32
	Actual   uint32
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("%s: %s (expected %08x, got %08x)", ErrChecksumMismatch, e.Region, e.Expected, e.Actual)
}

func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }

// VersionError carries the raw version string that could not be used.
type VersionError struct {
	Raw string
	Err error
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Raw)
}

func (e *VersionError) Unwrap() error { return e.Err }
