// pkg/extract/extract.go

// Package extract routes an installer file to the parser for its format and
// collects the result into a manifest.Analysis.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/windowsadmins/setupinfo/pkg/inno"
	"github.com/windowsadmins/setupinfo/pkg/logging"
	"github.com/windowsadmins/setupinfo/pkg/manifest"
	"github.com/windowsadmins/setupinfo/pkg/mmap"
	"github.com/windowsadmins/setupinfo/pkg/nsis"
)

// DefaultMaxNestedSize bounds an installer unpacked from a zip when no
// size limit is configured.
const DefaultMaxNestedSize int64 = 1 << 30

var (
	// ErrUnsupportedExtension is returned for files whose extension has no parser.
	ErrUnsupportedExtension = errors.New("unsupported installer extension")
	// ErrNestedTooLarge is returned when a zip member exceeds the size limit.
	ErrNestedTooLarge = errors.New("nested installer too large")
)

// IsNotThisFormat reports whether err only means that a parser did not
// recognise the file, so the next candidate format may be tried.
func IsNotThisFormat(err error) bool {
	return errors.Is(err, inno.ErrNotInno) || errors.Is(err, nsis.ErrNotNsis)
}

// Analyse inspects the installer in data. fileName selects the format by
// its extension. Installers nested in a zip are limited to
// DefaultMaxNestedSize.
func Analyse(data []byte, fileName string) (*manifest.Analysis, error) {
	return analyse(data, fileName, DefaultMaxNestedSize)
}

func analyse(data []byte, fileName string, maxNested int64) (*manifest.Analysis, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	var (
		a   *manifest.Analysis
		err error
	)
	switch ext {
	case ".exe":
		a, err = exeMetadata(data)
	case ".msi":
		a, err = msiMetadata(data)
	case ".msix", ".msixbundle":
		a, err = msixMetadata(data, manifest.TypeMsix)
	case ".appx", ".appxbundle":
		a, err = msixMetadata(data, manifest.TypeAppx)
	case ".zip":
		a, err = zipMetadata(data, maxNested)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	a.FileName = filepath.Base(fileName)
	logging.Debug("Installer analysed", "file", a.FileName, "installers", len(a.Installers))
	return a, nil
}

// AnalyseFile maps the file at path and analyses it. Files larger than
// maxSize are rejected before mapping, and so are installers nested in a
// zip. maxSize <= 0 means no limit on the file itself and
// DefaultMaxNestedSize for nested installers.
func AnalyseFile(path string, maxSize int64) (*manifest.Analysis, error) {
	if !Supported(path) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExtension, filepath.Ext(path))
	}
	m, err := mmap.Open(path, maxSize)
	if err != nil {
		return nil, err
	}
	defer m.Close()
	maxNested := maxSize
	if maxNested <= 0 {
		maxNested = DefaultMaxNestedSize
	}
	return analyse(m.Data, path, maxNested)
}

// Supported reports whether a file name has an extension Analyse accepts.
func Supported(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".exe", ".msi", ".msix", ".msixbundle", ".appx", ".appxbundle", ".zip":
		return true
	}
	return false
}
