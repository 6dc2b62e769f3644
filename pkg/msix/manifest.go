// pkg/msix/manifest.go

package msix

import "encoding/xml"

// AppxManifest is the part of AppxManifest.xml that describes the package.
// Element names are matched without their namespace.
type AppxManifest struct {
	XMLName  xml.Name `xml:"Package"`
	Identity struct {
		Name                  string `xml:"Name,attr"`
		Publisher             string `xml:"Publisher,attr"`
		Version               string `xml:"Version,attr"`
		ProcessorArchitecture string `xml:"ProcessorArchitecture,attr"`
	} `xml:"Identity"`
	Properties struct {
		DisplayName          string `xml:"DisplayName"`
		PublisherDisplayName string `xml:"PublisherDisplayName"`
		Description          string `xml:"Description"`
		Framework            bool   `xml:"Framework"`
	} `xml:"Properties"`
	Resources []struct {
		Language string `xml:"Language,attr"`
	} `xml:"Resources>Resource"`
	TargetDeviceFamilies []struct {
		Name             string `xml:"Name,attr"`
		MinVersion       string `xml:"MinVersion,attr"`
		MaxVersionTested string `xml:"MaxVersionTested,attr"`
	} `xml:"Dependencies>TargetDeviceFamily"`
}

// BundleManifest is AppxMetadata/AppxBundleManifest.xml.
type BundleManifest struct {
	XMLName  xml.Name `xml:"Bundle"`
	Identity struct {
		Name      string `xml:"Name,attr"`
		Publisher string `xml:"Publisher,attr"`
		Version   string `xml:"Version,attr"`
	} `xml:"Identity"`
	Packages []BundlePackage `xml:"Packages>Package"`
}

// BundlePackage is one package listed in a bundle.
type BundlePackage struct {
	Type         string `xml:"Type,attr"`
	Version      string `xml:"Version,attr"`
	Architecture string `xml:"Architecture,attr"`
	FileName     string `xml:"FileName,attr"`
	ResourceID   string `xml:"ResourceId,attr"`
}

// Bundle package types.
const (
	PackageApplication = "application"
	PackageResource    = "resource"
)
