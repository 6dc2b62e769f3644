// pkg/nsis/shell.go

package nsis

// shellFolders maps CSIDL values to NSIS shell folder constants. Empty
// entries have no constant.
var shellFolders = [...]string{
	0x00: "DESKTOP",
	0x01: "INTERNET",
	0x02: "SMPROGRAMS",
	0x03: "CONTROLS",
	0x04: "PRINTERS",
	0x05: "DOCUMENTS",
	0x06: "FAVORITES",
	0x07: "SMSTARTUP",
	0x08: "RECENT",
	0x09: "SENDTO",
	0x0A: "BITBUCKET",
	0x0B: "STARTMENU",
	0x0D: "MUSIC",
	0x0E: "VIDEOS",
	0x10: "DESKTOP",
	0x11: "DRIVES",
	0x12: "NETWORK",
	0x13: "NETHOOD",
	0x14: "FONTS",
	0x15: "TEMPLATES",
	0x16: "STARTMENU",
	0x17: "SMPROGRAMS",
	0x18: "SMSTARTUP",
	0x19: "DESKTOP",
	0x1A: "APPDATA",
	0x1B: "PRINTHOOD",
	0x1C: "LOCALAPPDATA",
	0x1D: "ALTSTARTUP",
	0x1E: "ALTSTARTUP",
	0x1F: "FAVORITES",
	0x20: "INTERNET_CACHE",
	0x21: "COOKIES",
	0x22: "HISTORY",
	0x23: "APPDATA",
	0x24: "WINDIR",
	0x25: "SYSDIR",
	0x26: "PROGRAMFILES",
	0x27: "PICTURES",
	0x28: "PROFILE",
	0x29: "SYSTEMX86",
	0x2A: "PROGRAMFILESX86",
	0x2B: "PROGRAMFILES_COMMON",
	0x2C: "PROGRAMFILES_COMMONX86",
	0x2D: "TEMPLATES",
	0x2E: "DOCUMENTS",
	0x2F: "ADMINTOOLS",
	0x30: "ADMINTOOLS",
	0x31: "CONNECTIONS",
	0x35: "MUSIC",
	0x36: "PICTURES",
	0x37: "VIDEOS",
	0x38: "RESOURCES",
	0x39: "RESOURCES_LOCALIZED",
	0x3A: "COMMON_OEM_LINKS",
	0x3B: "CDBURN_AREA",
	0x3D: "COMPUTERSNEARME",
}

func shellFolder(csidl byte) string {
	if int(csidl) < len(shellFolders) {
		return shellFolders[csidl]
	}
	return ""
}
