// pkg/inno/entries.go

package inno

import (
	"github.com/windowsadmins/setupinfo/pkg/codepage"
)

// Language is a [Languages] entry.
type Language struct {
	Name           string
	LanguageName   string
	DialogFontName string
	ID             uint32
	CodePage       uint32
	RightToLeft    bool
}

func newLanguage(r Record, v Version) Language {
	l := Language{
		Name:           r.Text("Name"),
		LanguageName:   r.Text("LanguageName"),
		DialogFontName: r.Text("DialogFontName"),
		ID:             uint32(r.Uint("LanguageID")),
		CodePage:       uint32(r.Uint("LanguageCodePage")),
		RightToLeft:    r.Uint("RightToLeft") != 0,
	}
	switch {
	case v.IsUnicode():
		l.CodePage = codepage.UTF16LE
	case !r.Has("LanguageCodePage"):
		l.CodePage = codepage.ForLanguage(l.ID)
	}
	return l
}

// Message is a [CustomMessages] entry. Language indexes Setup.Languages, or
// is negative when the message applies to every language.
type Message struct {
	Name     string
	Value    string
	Language int32
}

// Condition holds the Components/Tasks/Languages/Check expressions shared by
// most entry types.
type Condition struct {
	Components    string
	Tasks         string
	Languages     string
	Check         string
	AfterInstall  string
	BeforeInstall string
}

func newCondition(r Record) Condition {
	return Condition{
		Components:    r.Text("Components"),
		Tasks:         r.Text("Tasks"),
		Languages:     r.Text("Languages"),
		Check:         r.Text("Check"),
		AfterInstall:  r.Text("AfterInstall"),
		BeforeInstall: r.Text("BeforeInstall"),
	}
}

type SetupType struct {
	Name        string
	Description string
	Languages   string
	Check       string
	Kind        string
	Size        uint64
	Custom      bool
}

func newSetupType(r Record) SetupType {
	return SetupType{
		Name:        r.Text("Name"),
		Description: r.Text("Description"),
		Languages:   r.Text("Languages"),
		Check:       r.Text("Check"),
		Kind:        r.Text("Typ"),
		Size:        r.Uint("Size"),
		Custom:      r.Flags("Options").Has("CustomSetupType"),
	}
}

type Component struct {
	Name        string
	Description string
	Types       string
	Languages   string
	Check       string
	Level       int64
	Used        bool
	Size        uint64
	Options     FlagSet
}

func newComponent(r Record) Component {
	return Component{
		Name:        r.Text("Name"),
		Description: r.Text("Description"),
		Types:       r.Text("Types"),
		Languages:   r.Text("Languages"),
		Check:       r.Text("Check"),
		Level:       r.Int("Level"),
		Used:        r.Uint("Used") != 0,
		Size:        r.Uint("Size"),
		Options:     r.Flags("Options"),
	}
}

type Task struct {
	Name             string
	Description      string
	GroupDescription string
	Components       string
	Languages        string
	Check            string
	Level            int64
	Used             bool
	Options          FlagSet
}

func newTask(r Record) Task {
	return Task{
		Name:             r.Text("Name"),
		Description:      r.Text("Description"),
		GroupDescription: r.Text("GroupDescription"),
		Components:       r.Text("Components"),
		Languages:        r.Text("Languages"),
		Check:            r.Text("Check"),
		Level:            r.Int("Level"),
		Used:             r.Uint("Used") != 0,
		Options:          r.Flags("Options"),
	}
}

type Directory struct {
	Name       string
	Attributes uint32
	Condition
	Options FlagSet
}

func newDirectory(r Record) Directory {
	return Directory{
		Name:       r.Text("DirName"),
		Attributes: uint32(r.Uint("Attribs")),
		Condition:  newCondition(r),
		Options:    r.Flags("Options"),
	}
}

type File struct {
	Source       string
	Destination  string
	FontName     string
	Location     uint32
	Attributes   uint32
	ExternalSize uint64
	Kind         string
	Condition
	Options FlagSet
}

func newFile(r Record) File {
	return File{
		Source:       r.Text("SourceFilename"),
		Destination:  r.Text("DestName"),
		FontName:     r.Text("InstallFontName"),
		Location:     uint32(r.Uint("LocationEntry")),
		Attributes:   uint32(r.Uint("Attribs")),
		ExternalSize: r.Uint("ExternalSize"),
		Kind:         r.Text("FileType"),
		Condition:    newCondition(r),
		Options:      r.Flags("Options"),
	}
}

type Icon struct {
	Name         string
	Filename     string
	Parameters   string
	WorkingDir   string
	IconFilename string
	Comment      string
	IconIndex    int64
	Condition
	Options FlagSet
}

func newIcon(r Record) Icon {
	return Icon{
		Name:         r.Text("IconName"),
		Filename:     r.Text("Filename"),
		Parameters:   r.Text("Parameters"),
		WorkingDir:   r.Text("WorkingDir"),
		IconFilename: r.Text("IconFilename"),
		Comment:      r.Text("Comment"),
		IconIndex:    r.Int("IconIndex"),
		Condition:    newCondition(r),
		Options:      r.Flags("Options"),
	}
}

type IniEntry struct {
	Filename string
	Section  string
	Key      string
	Value    string
	Condition
	Options FlagSet
}

func newIniEntry(r Record) IniEntry {
	return IniEntry{
		Filename:  r.Text("Filename"),
		Section:   r.Text("Section"),
		Key:       r.Text("Entry"),
		Value:     r.Text("Value"),
		Condition: newCondition(r),
		Options:   r.Flags("Options"),
	}
}

// Hive is a registry root key.
type Hive uint32

const (
	HiveClassesRoot Hive = iota
	HiveCurrentUser
	HiveLocalMachine
	HiveUsers
	HivePerformanceData
	HiveCurrentConfig
	HiveDynData
)

var hiveNames = [...]string{"HKCR", "HKCU", "HKLM", "HKU", "HKPD", "HKCC", "HKDD"}

func (h Hive) String() string {
	if int(h) < len(hiveNames) {
		return hiveNames[h]
	}
	return "unknown"
}

// RegistryEntry is a [Registry] entry. Text holds the decoded value for the
// string value types; Data always holds the stored bytes.
type RegistryEntry struct {
	Hive Hive
	Key  string
	Name string
	Type string
	Data []byte
	Text string
	Condition
	Options FlagSet
}

func (d *decoder) newRegistryEntry(r Record) RegistryEntry {
	e := RegistryEntry{
		Hive:      Hive(uint32(r.Uint("RootKey")) &^ 0x80000000),
		Key:       r.Text("Subkey"),
		Name:      r.Text("ValueName"),
		Type:      r.Text("Typ"),
		Data:      r.Bytes("ValueData"),
		Condition: newCondition(r),
		Options:   r.Flags("Options"),
	}
	switch e.Type {
	case "String", "ExpandString", "MultiString":
		e.Text = d.text(KindString, e.Data)
	}
	return e
}
