// pkg/inno/tables.go

package inno

var sectionTables = map[Section][]fieldSpec{
	SectionHeader:     headerTable,
	SectionLanguage:   languageTable,
	SectionWizard:     wizardTable,
	SectionMessage:    messageTable,
	SectionPermission: permissionTable,
	SectionType:       typeTable,
	SectionComponent:  componentTable,
	SectionTask:       taskTable,
	SectionDirectory:  directoryTable,
	SectionFile:       fileTable,
	SectionIcon:       iconTable,
	SectionIni:        iniTable,
	SectionRegistry:   registryTable,
}

var legacyEntrySize = specs(u32("UncompressedSize", before(1, 3, 0)))

// windowsVersionRange is the MinVersion / OnlyBelowVersion pair carried by
// the header and most entries.
func windowsVersionRange() []fieldSpec {
	var out []fieldSpec
	for _, bound := range []string{"MinVersion", "OnlyBelowVersion"} {
		out = append(out,
			u16(bound+"WinBuild", since(1, 3, 19)),
			u8(bound+"WinMinor", always),
			u8(bound+"WinMajor", always),
			u16(bound+"NTBuild", since(1, 3, 19)),
			u8(bound+"NTMinor", always),
			u8(bound+"NTMajor", always),
			u8(bound+"NTServicePackMinor", since(1, 3, 19)),
			u8(bound+"NTServicePackMajor", since(1, 3, 19)),
		)
	}
	return out
}

var conditions = specs(
	str("Components", or(since(2, 0, 0), isxSince(1, 3, 8))),
	str("Tasks", or(since(2, 0, 0), isxSince(1, 3, 17))),
	str("Languages", since(4, 0, 1)),
	str("Check", or(since(4, 0, 0), isxSince(1, 3, 24))),
	str("AfterInstall", since(4, 1, 0)),
	str("BeforeInstall", since(4, 1, 0)),
)

var (
	autoNoYes    = []string{"Auto", "No", "Yes"}
	ansiTextSpan = and(since(1, 3, 0), before(5, 2, 5))
	isx4         = or(since(4, 0, 0), isxSince(1, 3, 24))
)

var headerTable = join(
	specs(
		u32("UncompressedSize", before(1, 3, 0)),
		str("AppName", always),
		str("AppVerName", always),
		str("AppId", since(1, 3, 0)),
		str("AppCopyright", always),
		str("AppPublisher", since(1, 3, 0)),
		str("AppPublisherURL", since(1, 3, 0)),
		str("AppSupportPhone", since(5, 1, 13)),
		str("AppSupportURL", since(1, 3, 0)),
		str("AppUpdatesURL", since(1, 3, 0)),
		str("AppVersion", since(1, 3, 0)),
		str("DefaultDirName", always),
		str("DefaultGroupName", always),
		ansi("UninstallIconName", before(3, 0, 0)),
		str("BaseFilename", always),
		ansi("LicenseText", ansiTextSpan),
		ansi("InfoBeforeText", ansiTextSpan),
		ansi("InfoAfterText", ansiTextSpan),
		str("UninstallFilesDir", since(1, 3, 3)),
		str("UninstallDisplayName", since(1, 3, 6)),
		str("UninstallDisplayIcon", since(1, 3, 6)),
		str("AppMutex", since(1, 3, 14)),
		str("DefaultUserInfoName", since(3, 0, 0)),
		str("DefaultUserInfoOrg", since(3, 0, 0)),
		str("DefaultUserInfoSerial", sinceRevision(3, 0, 6, 1)),
		bin("CompiledCodeText", or(and(since(4, 0, 0), before(5, 2, 5)), isxSince(1, 3, 24))),
		str("AppReadmeFile", since(4, 2, 4)),
		str("AppContact", since(4, 2, 4)),
		str("AppComments", since(4, 2, 4)),
		str("AppModifyPath", since(4, 2, 4)),
		str("CreateUninstallRegKey", since(5, 3, 8)),
		str("Uninstallable", since(5, 3, 10)),
		str("CloseApplicationsFilter", since(5, 5, 0)),
		str("SetupMutex", since(5, 5, 6)),
		str("ChangesEnvironment", since(5, 6, 1)),
		str("ChangesAssociations", since(5, 6, 1)),
		str("ArchitecturesAllowedExpr", since(6, 3, 0)),
		str("ArchitecturesInstallIn64BitModeExpr", since(6, 3, 0)),
		str("CloseApplicationsFilterExcludes", since(6, 4, 2)),
		ansi("LicenseText", since(5, 2, 5)),
		ansi("InfoBeforeText", since(5, 2, 5)),
		ansi("InfoAfterText", since(5, 2, 5)),
		bin("SignedUninstallerSignature", and(since(5, 2, 1), before(5, 3, 10))),
		bin("CompiledCodeText", since(5, 2, 5)),
		raw("LeadBytes", 32, and(since(2, 0, 6), ansiBuild)),
		u32("NumLanguageEntries", since(4, 0, 0)),
		u32("NumCustomMessageEntries", since(4, 2, 1)).def(uint64(0)),
		u32("NumPermissionEntries", since(4, 1, 0)).def(uint64(0)),
		u32("NumTypeEntries", or(since(2, 0, 0), isxBuild)).def(uint64(0)),
		u32("NumComponentEntries", or(since(2, 0, 0), isxBuild)).def(uint64(0)),
		u32("NumTaskEntries", or(since(2, 0, 0), isxBuild)).def(uint64(0)),
		count("NumDirEntries", always),
		count("NumFileEntries", always),
		count("NumFileLocationEntries", always),
		count("NumIconEntries", always),
		count("NumIniEntries", always),
		count("NumRegistryEntries", always),
		count("NumInstallDeleteEntries", always),
		count("NumUninstallDeleteEntries", always),
		count("NumRunEntries", always),
		count("NumUninstallRunEntries", always),
		count("LicenseSize", before(1, 3, 0)),
		count("InfoBeforeSize", before(1, 3, 0)),
		count("InfoAfterSize", before(1, 3, 0)),
	),
	windowsVersionRange(),
	specs(
		u32("BackColor", always),
		u32("BackColor2", since(1, 3, 3)),
		u32("WizardImageBackColor", before(5, 5, 7)),
		u32("WizardSmallImageBackColor", and(since(2, 0, 0), before(5, 0, 4))),
		enum("WizardStyle", since(6, 0, 0), "Classic", "Modern"),
		u32("WizardResizePercentX", since(6, 0, 0)),
		u32("WizardResizePercentY", since(6, 0, 0)),
		enum("WizardImageAlphaFormat", since(5, 5, 7), "None", "Premultiplied", "Defined"),
		u32("PasswordCRC", before(4, 2, 0)),
		raw("PasswordMD5", 16, and(since(4, 2, 0), before(5, 3, 9))),
		raw("PasswordSHA1", 20, and(since(5, 3, 9), before(6, 4, 0))),
		u32("PasswordTest", since(6, 4, 0)),
		raw("EncryptionKDFSalt", 16, since(6, 4, 0)),
		u32("EncryptionKDFIterations", since(6, 4, 0)),
		raw("EncryptionBaseNonce", 24, since(6, 4, 0)),
		raw("PasswordSalt", 8, and(since(4, 2, 2), before(6, 4, 0))),
		i64("ExtraDiskSpaceRequired", since(4, 0, 0)),
		u32("SlicesPerDisk", since(4, 0, 0)).def(uint64(1)),
		i32("ExtraDiskSpaceRequired", before(4, 0, 0)),
		enum("InstallVerbosity", and(since(2, 0, 0), before(5, 0, 0)), "Normal", "Silent", "VerySilent"),
		enum("UninstallLogMode", since(1, 3, 0), "Append", "New", "Overwrite").def("Append"),
		enum("UninstallStyle", and(since(2, 0, 0), before(5, 0, 0)), "Classic", "Modern"),
		enum("DirExistsWarning", since(1, 3, 6), autoNoYes...).def("Auto"),
		enum("RestartComputer", and(since(3, 0, 0), before(3, 0, 3)), autoNoYes...),
		enum("PrivilegesRequired", since(5, 3, 7), "None", "PowerUser", "Admin", "Lowest"),
		enum("PrivilegesRequired", and(since(3, 0, 4), before(5, 3, 7)), "None", "PowerUser", "Admin"),
		flags("PrivilegesRequiredOverridesAllowed", since(6, 0, 0),
			flag("CommandLine"),
			flag("Dialog"),
		).def(FlagSet{}),
		enum("ShowLanguageDialog", since(4, 0, 10), "Yes", "No", "Auto"),
		enum("LanguageDetectionMethod", since(4, 0, 10), "UILanguage", "Locale", "None"),
		enum("CompressMethod", since(5, 3, 9), "Stored", "Zlib", "BZip2", "LZMA1", "LZMA2"),
		enum("CompressMethod", and(since(4, 2, 6), before(5, 3, 9)), "Stored", "Zlib", "BZip2", "LZMA1"),
		enum("CompressMethod", and(since(4, 2, 5), before(4, 2, 6)), "Stored", "BZip2", "LZMA1"),
		enum("CompressMethod", and(since(4, 1, 5), before(4, 2, 5)), "Zlib", "BZip2", "LZMA1"),
		flags("ArchitecturesAllowed", and(since(5, 6, 0), before(6, 3, 0)),
			flag("Unknown"), flag("X86"), flag("Amd64"), flag("IA64"), flag("Arm64"),
		),
		flags("ArchitecturesInstallIn64BitMode", and(since(5, 6, 0), before(6, 3, 0)),
			flag("Unknown"), flag("X86"), flag("Amd64"), flag("IA64"), flag("Arm64"),
		),
		flags("ArchitecturesAllowed", and(since(5, 1, 0), before(5, 6, 0)),
			flag("Unknown"), flag("X86"), flag("Amd64"), flag("IA64"),
		),
		flags("ArchitecturesInstallIn64BitMode", and(since(5, 1, 0), before(5, 6, 0)),
			flag("Unknown"), flag("X86"), flag("Amd64"), flag("IA64"),
		),
		u32("SignedUninstallerOrigSize", and(since(5, 2, 1), before(5, 3, 10))),
		u32("SignedUninstallerHdrChecksum", and(since(5, 2, 1), before(5, 3, 10))),
		enum("DisableDirPage", since(5, 3, 3), autoNoYes...),
		enum("DisableProgramGroupPage", since(5, 3, 3), autoNoYes...),
		u64("UninstallDisplaySize", since(5, 5, 0)),
		u32("UninstallDisplaySize", and(since(5, 3, 6), before(5, 5, 0))),
		flags("Options", always,
			flag("DisableStartupPrompt"),
			flag("Uninstallable", before(5, 3, 10)),
			flag("CreateAppDir"),
			flag("DisableDirPage", before(5, 3, 3)),
			flag("DisableDirExistsWarning", before(1, 3, 6)),
			flag("DisableProgramGroupPage", before(5, 3, 3)),
			flag("AllowNoIcons"),
			flag("AlwaysRestart", or(before(3, 0, 0), since(3, 0, 3))),
			flag("BackSolid", before(1, 3, 3)),
			flag("AlwaysUsePersonalGroup"),
			flag("WindowVisible"),
			flag("WindowShowCaption"),
			flag("WindowResizable"),
			flag("WindowStartMaximized"),
			flag("EnableDirDoesntExistWarning"),
			flag("DisableAppendDir", before(4, 1, 2)),
			flag("Password"),
			flag("AllowRootDirectory"),
			flag("DisableFinishedPage"),
			flag("AdminPrivilegesRequired", bits32, before(3, 0, 4)),
			flag("AlwaysCreateUninstallIcon", bits32, is(3, 0, 0)),
			flag("OverwriteUninstRegEntries", bits32, before(1, 3, 6)),
			flag("ChangesAssociations", bits32, before(5, 6, 1)),
			flag("CreateUninstallRegKey", before(5, 3, 8)),
			flag("UsePreviousAppDir"),
			flag("BackColorHorizontal"),
			flag("UsePreviousGroup"),
			flag("UpdateUninstallLogAppName"),
			flag("UsePreviousSetupType", or(since(2, 0, 0), isxBuild)),
			flag("DisableReadyMemo", or(since(2, 0, 0), isxBuild)),
			flag("AlwaysShowComponentsList", or(since(2, 0, 0), isxBuild)),
			flag("FlatComponentsList", or(since(2, 0, 0), isxBuild)),
			flag("ShowComponentSizes", or(since(2, 0, 0), isxBuild)),
			flag("UsePreviousTasks", or(since(2, 0, 0), isxBuild)),
			flag("DisableReadyPage", or(since(2, 0, 0), isxBuild)),
			flag("AlwaysShowDirOnReadyPage", since(2, 0, 7)),
			flag("AlwaysShowGroupOnReadyPage", since(2, 0, 7)),
			flag("BzipUsed", since(2, 0, 17), before(4, 1, 5)),
			flag("AllowUNCPath", since(2, 0, 18)),
			flag("UserInfoPage", since(3, 0, 0)),
			flag("UsePreviousUserInfo", since(3, 0, 0)),
			flag("UninstallRestartComputer", since(3, 0, 1)),
			flag("RestartIfNeededByRun", since(3, 0, 3)),
			flag("ShowTasksTreeLines", or(since(4, 0, 0), isxSince(3, 0, 3))),
			flag("ShowLanguageDialog", since(4, 0, 1), before(4, 0, 10)),
			flag("DetectLanguageUsingLocale", since(4, 0, 1), before(4, 0, 10)),
			flag("AllowCancelDuringInstall", since(4, 0, 9)),
			flag("WizardImageStretch", since(4, 1, 3)),
			flag("AppendDefaultDirName", since(4, 1, 8)),
			flag("AppendDefaultGroupName", since(4, 1, 8)),
			flag("EncryptionUsed", since(4, 2, 2)),
			flag("ChangesEnvironment", since(5, 0, 4), before(5, 6, 1)),
			flag("ShowUndisplayableLanguages", since(5, 1, 7), ansiBuild),
			flag("SetupLogging", since(5, 1, 13)),
			flag("SignedUninstaller", since(5, 2, 1)),
			flag("UsePreviousLanguage", since(5, 3, 8)),
			flag("DisableWelcomePage", since(5, 3, 9)),
			flag("CloseApplications", since(5, 5, 0)),
			flag("RestartApplications", since(5, 5, 0)),
			flag("AllowNetworkDrive", since(5, 5, 0)),
			flag("ForceCloseApplications", since(5, 5, 7)),
			flag("AppNameHasConsts", since(6, 0, 0)),
			flag("UsePreviousPrivileges", since(6, 0, 0)),
			flag("WizardResizable", since(6, 0, 0)),
			flag("UninstallLogging", since(6, 3, 0)),
		),
	),
)

var languageTable = specs(
	str("Name", since(4, 0, 0)).def("default"),
	wide("LanguageName", since(4, 2, 2)),
	ansi("LanguageName", before(4, 2, 2)),
	str("DialogFontName", always),
	str("TitleFontName", always),
	str("WelcomeFontName", always),
	str("CopyrightFontName", always),
	bin("Data", since(4, 0, 0)),
	ansi("LicenseText", since(4, 0, 1)),
	ansi("InfoBeforeText", since(4, 0, 1)),
	ansi("InfoAfterText", since(4, 0, 1)),
	u32("LanguageID", always),
	u32("LanguageCodePage", and(since(4, 2, 2), or(ansiBuild, before(5, 3, 0)))),
	u32("DialogFontSize", always),
	u32("DialogFontStandardHeight", before(4, 1, 0)),
	u32("TitleFontSize", always),
	u32("WelcomeFontSize", always),
	u32("CopyrightFontSize", always),
	u8("RightToLeft", since(5, 2, 3)).def(uint64(0)),
)

// wizardTable covers the images stored after the languages in setups older
// than 4.0.0. The optional decompressor DLL that may follow depends on the
// header's options and is read separately.
var wizardTable = specs(
	bin("WizardImage", always),
	bin("WizardSmallImage", or(since(2, 0, 0), isxBuild)),
)

var messageTable = specs(
	str("Name", always),
	bin("Value", always),
	i32("Language", always),
)

var permissionTable = specs(
	bin("Permissions", always),
)

var typeTable = join(
	specs(
		str("Name", always),
		str("Description", always),
		str("Languages", since(4, 0, 1)),
		str("Check", isx4),
	),
	windowsVersionRange(),
	specs(
		flags("Options", always, flag("CustomSetupType")),
		enum("Typ", since(4, 0, 3), "User", "DefaultFull", "DefaultCompact", "DefaultCustom").def("User"),
		u64("Size", since(4, 0, 0)),
		u32("Size", before(4, 0, 0)),
	),
)

var componentTable = join(
	specs(
		str("Name", always),
		str("Description", always),
		str("Types", always),
		str("Languages", since(4, 0, 1)),
		str("Check", isx4),
		u64("ExtraDiskSpaceRequired", since(4, 0, 0)),
		u32("ExtraDiskSpaceRequired", before(4, 0, 0)),
		i32("Level", or(since(4, 0, 0), isxSince(3, 0, 3))).def(int64(0)),
		u8("Used", or(since(4, 0, 0), isxSince(3, 0, 4))).def(uint64(1)),
	),
	windowsVersionRange(),
	specs(
		flags("Options", always,
			flag("Fixed"),
			flag("Restart"),
			flag("DisableNoUninstallWarning"),
			flag("Exclusive"),
			flag("DontInheritCheck", since(4, 2, 3)),
		),
		u64("Size", since(4, 0, 0)),
		u32("Size", and(before(4, 0, 0), or(since(2, 0, 0), isxSince(1, 3, 24)))),
	),
)

var taskTable = join(
	specs(
		str("Name", always),
		str("Description", always),
		str("GroupDescription", always),
		str("Components", always),
		str("Languages", since(4, 0, 1)),
		str("Check", isx4),
		i32("Level", or(since(4, 0, 0), isxSince(3, 0, 3))).def(int64(0)),
		u8("Used", or(since(4, 0, 0), isxSince(3, 0, 4))).def(uint64(1)),
	),
	windowsVersionRange(),
	specs(
		flags("Options", always,
			flag("Exclusive"),
			flag("Unchecked"),
			flag("Restart"),
			flag("CheckedOnce"),
			flag("DontInheritCheck", since(4, 2, 3)),
		),
	),
)

var directoryTable = join(
	legacyEntrySize,
	specs(str("DirName", always)),
	conditions,
	specs(
		bin("Permissions", and(since(4, 0, 11), before(4, 1, 0))),
		u32("Attribs", since(2, 0, 11)),
	),
	windowsVersionRange(),
	specs(
		i16("PermissionsEntry", since(4, 1, 0)).def(int64(-1)),
		flags("Options", always,
			flag("NeverUninstall"),
			flag("DeleteAfterInstall"),
			flag("AlwaysUninstall"),
			flag("SetNTFSCompression", since(5, 2, 0)),
			flag("UnsetNTFSCompression", since(5, 2, 0)),
		),
	),
)

var fileTable = join(
	legacyEntrySize,
	specs(
		str("SourceFilename", always),
		str("DestName", always),
		str("InstallFontName", always),
		str("StrongAssemblyName", since(5, 2, 5)),
	),
	conditions,
	windowsVersionRange(),
	specs(
		u32("LocationEntry", always),
		u32("Attribs", always),
		u64("ExternalSize", since(4, 0, 0)),
		u32("ExternalSize", before(4, 0, 0)),
		i16("PermissionsEntry", since(4, 1, 0)).def(int64(-1)),
		flags("Options", always,
			flag("ConfirmOverwrite"),
			flag("NeverUninstall"),
			flag("RestartReplace"),
			flag("DeleteAfterInstall"),
			flag("RegisterServer", bits32),
			flag("RegisterTypeLib", bits32),
			flag("SharedFile", bits32),
			flag("IsReadmeFile", before(2, 0, 0), func(v Version) bool { return !v.IsISX() }),
			flag("CompareTimeStamp"),
			flag("FontIsNotTrueType"),
			flag("SkipIfSourceDoesntExist", since(1, 2, 5)),
			flag("OverwriteReadOnly", since(1, 2, 6)),
			flag("OverwriteSameVersion", since(1, 3, 21)),
			flag("CustomDestName", since(1, 3, 21)),
			flag("OnlyIfDestFileExists", since(1, 3, 25)),
			flag("NoRegError", since(2, 0, 5)),
			flag("UninsRestartDelete", since(3, 0, 1)),
			flag("OnlyIfDoesntExist", since(3, 0, 5)),
			flag("IgnoreVersion", since(3, 0, 5)),
			flag("PromptIfOlder", since(3, 0, 5)),
			flag("DontCopy", or(since(4, 0, 0), and(isxBuild, sinceRevision(3, 0, 6, 1)))),
			flag("UninsRemoveReadOnly", since(4, 0, 5)),
			flag("RecurseSubDirsExternal", since(4, 1, 8)),
			flag("ReplaceSameVersionIfContentsDiffer", since(4, 2, 1)),
			flag("DontVerifyChecksum", since(4, 2, 5)),
			flag("UninsNoSharedFilePrompt", since(5, 0, 3)),
			flag("CreateAllSubDirs", since(5, 1, 0)),
			flag("Bits32", since(5, 1, 2)),
			flag("Bits64", since(5, 1, 2)),
			flag("ExternalSizePreset", since(5, 2, 0)),
			flag("SetNTFSCompression", since(5, 2, 0)),
			flag("UnsetNTFSCompression", since(5, 2, 0)),
			flag("GacInstall", since(5, 2, 5)),
		),
		enum("FileType", since(5, 0, 0), "UserFile", "UninstExe"),
		enum("FileType", before(5, 0, 0), "UserFile", "UninstExe", "RegSvrExe"),
	),
)

var iconTable = join(
	legacyEntrySize,
	specs(
		str("IconName", always),
		str("Filename", always),
		str("Parameters", always),
		str("WorkingDir", always),
		str("IconFilename", always),
		str("Comment", always),
	),
	conditions,
	specs(
		str("AppUserModelID", since(5, 3, 5)),
		raw("AppUserModelToastActivatorCLSID", 16, since(6, 1, 0)),
	),
	windowsVersionRange(),
	specs(
		i32("IconIndex", always),
		i32("ShowCmd", since(1, 3, 24)).def(int64(1)),
		enum("CloseOnExit", since(1, 3, 15), "NoSetting", "Yes", "No").def("NoSetting"),
		u16("HotKey", since(2, 0, 7)).def(uint64(0)),
		flags("Options", always,
			flag("NeverUninstall"),
			flag("CreateOnlyIfFileExists", before(1, 3, 26)),
			flag("UseAppPaths"),
			flag("FolderShortcut", since(5, 0, 3)),
			flag("ExcludeFromShowInNewInstall", since(5, 4, 2)),
			flag("PreventPinning", since(5, 5, 0)),
			flag("HasAppUserModelToastActivatorCLSID", since(6, 1, 0)),
		),
	),
)

var iniTable = join(
	legacyEntrySize,
	specs(
		str("Filename", always),
		str("Section", always),
		str("Entry", always),
		str("Value", always),
	),
	conditions,
	windowsVersionRange(),
	specs(
		flags("Options", always,
			flag("CreateKeyIfDoesntExist"),
			flag("UninsDeleteEntry"),
			flag("UninsDeleteEntireSection"),
			flag("UninsDeleteSectionIfEmpty"),
			flag("HasValue"),
		),
	),
)

var registryTable = join(
	legacyEntrySize,
	specs(
		str("Subkey", always),
		str("ValueName", bits32),
		bin("ValueData", always),
	),
	conditions,
	specs(bin("Permissions", and(since(4, 0, 11), before(4, 1, 0)))),
	windowsVersionRange(),
	specs(
		u32("RootKey", bits32),
		i16("PermissionsEntry", since(4, 1, 0)).def(int64(-1)),
		enum("Typ", since(5, 2, 5), "None", "String", "ExpandString", "DWord", "Binary", "MultiString", "QWord"),
		enum("Typ", and(before(5, 2, 5), bits32), "None", "String", "ExpandString", "DWord", "Binary", "MultiString"),
		enum("Typ", and(before(5, 2, 5), bits16), "None", "String"),
		flags("Options", always,
			flag("CreateValueIfDoesntExist"),
			flag("UninsDeleteValue"),
			flag("UninsClearValue"),
			flag("UninsDeleteEntireKey"),
			flag("UninsDeleteEntireKeyIfEmpty"),
			flag("PreserveStringType", since(1, 2, 6)),
			flag("DeleteKey", since(1, 3, 9)),
			flag("DeleteValue", since(1, 3, 9)),
			flag("NoError", since(1, 3, 17)),
			flag("DontCreateKey", since(1, 3, 18)),
			flag("Bits32", since(5, 1, 0)),
			flag("Bits64", since(5, 1, 0)),
		),
	),
)
