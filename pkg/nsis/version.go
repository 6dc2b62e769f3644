// pkg/nsis/version.go

package nsis

// Version selects the special code set of the string table.
type Version int

const (
	// NSIS3 is the default: codes 1 to 4.
	NSIS3 Version = iota
	// NSIS2 uses codes 252 to 255.
	NSIS2
	// Park is the unofficial unicode fork with codes in the private use area.
	Park
)

func (v Version) String() string {
	switch v {
	case NSIS2:
		return "nsis2"
	case Park:
		return "park"
	default:
		return "nsis3"
	}
}

// codes are the special code values of one version.
type codes struct {
	lang, shell, variable, skip uint16
}

func (v Version) codes() codes {
	switch v {
	case NSIS2:
		return codes{lang: 255, shell: 254, variable: 253, skip: 252}
	case Park:
		return codes{lang: 0xE003, shell: 0xE002, variable: 0xE001, skip: 0xE000}
	default:
		return codes{lang: 1, shell: 2, variable: 3, skip: 4}
	}
}

func (c codes) is(ch uint16) bool {
	return ch == c.lang || ch == c.shell || ch == c.variable || ch == c.skip
}

// DetectVersion guesses the code set from how often each set's codes occur
// in the string table. Private use codes only appear in the Park fork.
func DetectVersion(table []byte) Version {
	unicode := isUnicode(table)
	var nsis2, nsis3, park int
	step := 1
	if unicode {
		step = 2
	}
	for i := 0; i+step <= len(table); i += step {
		ch := uint16(table[i])
		if unicode {
			ch |= uint16(table[i+1]) << 8
		}
		switch {
		case ch >= 0xE000 && ch <= 0xE003:
			park++
		case ch >= 1 && ch <= 4:
			nsis3++
		case ch >= 252 && ch <= 255:
			nsis2++
		}
	}
	switch {
	case unicode && park > 0 && park >= nsis3:
		return Park
	case nsis2 > nsis3:
		return NSIS2
	default:
		return NSIS3
	}
}
