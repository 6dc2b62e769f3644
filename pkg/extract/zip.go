// pkg/extract/zip.go

package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/windowsadmins/setupinfo/pkg/logging"
	"github.com/windowsadmins/setupinfo/pkg/manifest"
)

// zipMetadata lists the installers inside an archive. A single candidate is
// analysed itself and its installers are reported as nested in the archive.
// A candidate larger than maxNested bytes is rejected.
func zipMetadata(data []byte, maxNested int64) (*manifest.Analysis, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("reading zip: %w", err)
	}

	candidates := nestedCandidates(zr)
	var names []string
	for _, f := range candidates {
		names = append(names, f.Name)
	}

	if len(candidates) != 1 {
		logging.Debug("Zip has no single nested installer", "candidates", len(candidates))
		return &manifest.Analysis{
			Installers: []manifest.Installer{{
				Architecture:         manifest.ArchNeutral,
				Type:                 manifest.TypeZip,
				NestedInstallerFiles: names,
			}},
		}, nil
	}

	f := candidates[0]
	inner, err := readZipFile(f, maxNested)
	if err != nil {
		return nil, err
	}
	a, err := analyse(inner, f.Name, maxNested)
	if err != nil {
		return nil, fmt.Errorf("nested installer: %w", err)
	}
	for i := range a.Installers {
		inst := &a.Installers[i]
		inst.NestedInstallerType = inst.Type
		inst.Type = manifest.TypeZip
		inst.NestedInstallerFiles = names
	}
	return a, nil
}

// nestedCandidates returns the members whose extension Analyse accepts,
// other than further zip archives.
func nestedCandidates(zr *zip.Reader) []*zip.File {
	var out []*zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := strings.ReplaceAll(f.Name, `\`, "/")
		if strings.EqualFold(path.Ext(name), ".zip") || !Supported(name) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// readZipFile reads a member of at most limit bytes. The declared size is
// checked first and the read itself is capped as well.
func readZipFile(f *zip.File, limit int64) ([]byte, error) {
	if f.UncompressedSize64 > uint64(limit) {
		return nil, fmt.Errorf("%w: %s declares %d bytes, limit %d", ErrNestedTooLarge, f.Name, f.UncompressedSize64, limit)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Name, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrNestedTooLarge, f.Name, limit)
	}
	return data, nil
}
