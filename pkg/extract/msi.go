// pkg/extract/msi.go

package extract

import (
	"bytes"

	"github.com/windowsadmins/setupinfo/pkg/manifest"
	"github.com/windowsadmins/setupinfo/pkg/msi"
	"github.com/windowsadmins/setupinfo/pkg/msix"
)

// msiMetadata reads the Property table and summary information of an MSI.
func msiMetadata(data []byte) (*manifest.Analysis, error) {
	pkg, err := msi.Open(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	installers, err := pkg.Installers()
	if err != nil {
		return nil, err
	}
	return &manifest.Analysis{
		PackageName: pkg.Properties["ProductName"],
		Publisher:   pkg.Properties["Manufacturer"],
		Version:     pkg.DisplayVersion(),
		Installers:  installers,
	}, nil
}

// msixMetadata reads a package or bundle manifest.
func msixMetadata(data []byte, kind manifest.InstallerType) (*manifest.Analysis, error) {
	p, err := msix.Read(data)
	if err != nil {
		return nil, err
	}
	a := &manifest.Analysis{Installers: p.Installers(kind)}
	p.Describe(a)
	return a, nil
}
