// pkg/pe/pe.go

// Package pe reduces a parsed Portable Executable to the handful of facts the
// installer parsers need: resources, version strings, sections and overlay.
package pe

import (
	"fmt"
	"strings"

	saferwall "github.com/saferwall/pe"
)

// Resource type identifiers from winuser.h.
const (
	RTRCData  uint32 = 10
	RTVersion uint32 = 16
)

// Machine types from the COFF file header.
const (
	MachineI386  uint16 = 0x14c
	MachineARMNT uint16 = 0x1c4
	MachineAMD64 uint16 = 0x8664
	MachineARM64 uint16 = 0xaa64
)

// Resource is a leaf of the resource tree located by file offset.
type Resource struct {
	Type   uint32
	ID     uint32
	Name   string
	Lang   uint32
	Offset uint32
	Size   uint32
}

// Image is the pre-parsed view of an executable.
type Image struct {
	Machine       uint16
	Sections      []string
	OverlayOffset int64
	Resources     []Resource
	VersionInfo   map[string]string
}

// Parse reads the PE headers, section table, resource tree and version
// information of data.
func Parse(data []byte) (*Image, error) {
	// Fast mode skips the data directories, and the resource directory is required.
	f, err := saferwall.NewBytes(data, &saferwall.Options{
		OmitExportDirectory:       true,
		OmitImportDirectory:       true,
		OmitExceptionDirectory:    true,
		OmitSecurityDirectory:     true,
		OmitRelocDirectory:        true,
		OmitDebugDirectory:        true,
		OmitArchitectureDirectory: true,
		OmitGlobalPtrDirectory:    true,
		OmitTLSDirectory:          true,
		OmitLoadConfigDirectory:   true,
		OmitBoundImportDirectory:  true,
		OmitIATDirectory:          true,
		OmitDelayImportDirectory:  true,
		OmitCLRHeaderDirectory:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating PE file: %w", err)
	}
	defer f.Close()

	if err := f.Parse(); err != nil {
		return nil, fmt.Errorf("error parsing PE file: %w", err)
	}

	img := &Image{
		Machine:     uint16(f.NtHeader.FileHeader.Machine),
		VersionInfo: map[string]string{},
	}

	var end int64
	for i := range f.Sections {
		s := &f.Sections[i]
		img.Sections = append(img.Sections, s.String())
		if e := int64(s.Header.PointerToRawData) + int64(s.Header.SizeOfRawData); e > end {
			end = e
		}
	}
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	img.OverlayOffset = end

	for _, typ := range f.Resources.Entries {
		for _, named := range typ.Directory.Entries {
			for _, lang := range named.Directory.Entries {
				if lang.IsResourceDir {
					continue
				}
				img.Resources = append(img.Resources, Resource{
					Type:   typ.ID,
					ID:     named.ID,
					Name:   named.Name,
					Lang:   lang.ID,
					Offset: f.GetOffsetFromRva(lang.Data.Struct.OffsetToData),
					Size:   lang.Data.Struct.Size,
				})
			}
		}
	}

	if vi, err := f.ParseVersionResources(); err == nil {
		for k, v := range vi {
			img.VersionInfo[k] = strings.TrimSpace(v)
		}
	}

	return img, nil
}

// Resource returns the bytes of the first resource with the given type and
// numeric id.
func (img *Image) Resource(data []byte, typ, id uint32) ([]byte, bool) {
	if img == nil {
		return nil, false
	}
	for _, r := range img.Resources {
		if r.Type != typ || r.ID != id {
			continue
		}
		start, end := uint64(r.Offset), uint64(r.Offset)+uint64(r.Size)
		if end > uint64(len(data)) {
			return nil, false
		}
		return data[start:end], true
	}
	return nil, false
}

// HasSection reports whether a section with the given name exists.
func (img *Image) HasSection(name string) bool {
	if img == nil {
		return false
	}
	for _, s := range img.Sections {
		if s == name {
			return true
		}
	}
	return false
}

// Info returns a version-info string, or "" when absent.
func (img *Image) Info(key string) string {
	if img == nil {
		return ""
	}
	return img.VersionInfo[key]
}
