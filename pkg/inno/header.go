// pkg/inno/header.go

package inno

// PrivilegeLevel is the PrivilegesRequired setting of a setup.
type PrivilegeLevel string

const (
	PrivilegesNone      PrivilegeLevel = "None"
	PrivilegesPowerUser PrivilegeLevel = "PowerUser"
	PrivilegesAdmin     PrivilegeLevel = "Admin"
	PrivilegesLowest    PrivilegeLevel = "Lowest"
)

// Counts holds the number of entries of each section.
type Counts struct {
	Languages        uint64
	Messages         uint64
	Permissions      uint64
	Types            uint64
	Components       uint64
	Tasks            uint64
	Directories      uint64
	Files            uint64
	DataEntries      uint64
	Icons            uint64
	IniEntries       uint64
	RegistryEntries  uint64
	InstallDeletes   uint64
	UninstallDeletes uint64
	Runs             uint64
	UninstallRuns    uint64
}

// Header is the decoded setup header.
type Header struct {
	AppName                 string
	AppVerName              string
	AppID                   string
	AppCopyright            string
	AppPublisher            string
	AppPublisherURL         string
	AppSupportPhone         string
	AppSupportURL           string
	AppUpdatesURL           string
	AppVersion              string
	DefaultDirName          string
	DefaultGroupName        string
	BaseFilename            string
	UninstallFilesDir       string
	UninstallDisplayName    string
	UninstallDisplayIcon    string
	AppMutex                string
	SetupMutex              string
	AppComments             string
	AppContact              string
	AppReadmeFile           string
	AppModifyPath           string
	CreateUninstallRegKey   string
	Uninstallable           string
	CloseApplicationsFilter string

	// Boolean expressions, 6.3.0 and later.
	ArchitecturesAllowedExpr            string
	ArchitecturesInstallIn64BitModeExpr string

	// Flag sets, 5.1.0 up to 6.3.0.
	ArchitecturesAllowed            FlagSet
	ArchitecturesInstallIn64BitMode FlagSet

	Counts Counts

	PrivilegesRequired                 PrivilegeLevel
	PrivilegesRequiredOverridesAllowed FlagSet

	CompressMethod          string
	DisableDirPage          string
	DisableProgramGroupPage string
	UninstallDisplaySize    uint64
	Options                 FlagSet

	// Record keeps every decoded field, including the ones not lifted above.
	Record Record
}

func newHeader(r Record, v Version) Header {
	h := Header{
		AppName:                             r.Text("AppName"),
		AppVerName:                          r.Text("AppVerName"),
		AppID:                               r.Text("AppId"),
		AppCopyright:                        r.Text("AppCopyright"),
		AppPublisher:                        r.Text("AppPublisher"),
		AppPublisherURL:                     r.Text("AppPublisherURL"),
		AppSupportPhone:                     r.Text("AppSupportPhone"),
		AppSupportURL:                       r.Text("AppSupportURL"),
		AppUpdatesURL:                       r.Text("AppUpdatesURL"),
		AppVersion:                          r.Text("AppVersion"),
		DefaultDirName:                      r.Text("DefaultDirName"),
		DefaultGroupName:                    r.Text("DefaultGroupName"),
		BaseFilename:                        r.Text("BaseFilename"),
		UninstallFilesDir:                   r.Text("UninstallFilesDir"),
		UninstallDisplayName:                r.Text("UninstallDisplayName"),
		UninstallDisplayIcon:                r.Text("UninstallDisplayIcon"),
		AppMutex:                            r.Text("AppMutex"),
		SetupMutex:                          r.Text("SetupMutex"),
		AppComments:                         r.Text("AppComments"),
		AppContact:                          r.Text("AppContact"),
		AppReadmeFile:                       r.Text("AppReadmeFile"),
		AppModifyPath:                       r.Text("AppModifyPath"),
		CreateUninstallRegKey:               r.Text("CreateUninstallRegKey"),
		Uninstallable:                       r.Text("Uninstallable"),
		CloseApplicationsFilter:             r.Text("CloseApplicationsFilter"),
		ArchitecturesAllowedExpr:            r.Text("ArchitecturesAllowedExpr"),
		ArchitecturesInstallIn64BitModeExpr: r.Text("ArchitecturesInstallIn64BitModeExpr"),
		ArchitecturesAllowed:                r.Flags("ArchitecturesAllowed"),
		ArchitecturesInstallIn64BitMode:     r.Flags("ArchitecturesInstallIn64BitMode"),
		PrivilegesRequiredOverridesAllowed:  r.Flags("PrivilegesRequiredOverridesAllowed"),
		CompressMethod:                      r.Text("CompressMethod"),
		DisableDirPage:                      r.Text("DisableDirPage"),
		DisableProgramGroupPage:             r.Text("DisableProgramGroupPage"),
		UninstallDisplaySize:                r.Uint("UninstallDisplaySize"),
		Options:                             r.Flags("Options"),
		Record:                              r,
	}

	h.Counts = Counts{
		Messages:         r.Uint("NumCustomMessageEntries"),
		Permissions:      r.Uint("NumPermissionEntries"),
		Types:            r.Uint("NumTypeEntries"),
		Components:       r.Uint("NumComponentEntries"),
		Tasks:            r.Uint("NumTaskEntries"),
		Directories:      r.Uint("NumDirEntries"),
		Files:            r.Uint("NumFileEntries"),
		DataEntries:      r.Uint("NumFileLocationEntries"),
		Icons:            r.Uint("NumIconEntries"),
		IniEntries:       r.Uint("NumIniEntries"),
		RegistryEntries:  r.Uint("NumRegistryEntries"),
		InstallDeletes:   r.Uint("NumInstallDeleteEntries"),
		UninstallDeletes: r.Uint("NumUninstallDeleteEntries"),
		Runs:             r.Uint("NumRunEntries"),
		UninstallRuns:    r.Uint("NumUninstallRunEntries"),
	}
	switch {
	case r.Has("NumLanguageEntries"):
		h.Counts.Languages = r.Uint("NumLanguageEntries")
	case v.AtLeast(2, 0, 1):
		h.Counts.Languages = 1
	}

	switch {
	case r.Has("PrivilegesRequired"):
		h.PrivilegesRequired = PrivilegeLevel(r.Text("PrivilegesRequired"))
	case h.Options.Has("AdminPrivilegesRequired"):
		h.PrivilegesRequired = PrivilegesAdmin
	default:
		h.PrivilegesRequired = PrivilegesNone
	}

	if h.CompressMethod == "" {
		h.CompressMethod = "Zlib"
		if h.Options.Has("BzipUsed") {
			h.CompressMethod = "BZip2"
		}
	}
	if h.UninstallDisplayName == "" {
		h.UninstallDisplayName = h.AppVerName
	}
	return h
}
