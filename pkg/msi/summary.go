// pkg/msi/summary.go

package msi

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/richardlehane/msoleps"
	"github.com/richardlehane/msoleps/types"

	"github.com/windowsadmins/setupinfo/pkg/codepage"
)

const summaryStream = "SummaryInformation"

// Summary holds the SummaryInformation properties the metadata needs.
type Summary struct {
	CodePage uint32
	// Template is "platform;languages", e.g. "x64;1033".
	Template            string
	CreatingApplication string
	Comments            string
	Title               string
	Subject             string
	Author              string
}

// Platform returns the part of the template before the first ';'.
func (s Summary) Platform() string {
	p, _, _ := strings.Cut(s.Template, ";")
	return strings.TrimSpace(p)
}

// parseSummary decodes a SummaryInformation property set stream. String
// properties are decoded with the set's code page.
func parseSummary(r io.Reader) (sum Summary, err error) {
	// msoleps indexes the stream without bounds checks.
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: summary information: %v", ErrMalformed, p)
		}
	}()

	props, err := msoleps.NewFrom(r)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: summary information: %v", ErrMalformed, err)
	}

	raw := map[string]types.Type{}
	for _, p := range props.Property {
		if p == nil || p.T == nil {
			continue
		}
		raw[p.Name] = p.T
		if p.Name == "CodePage" {
			if cp, err := strconv.Atoi(p.T.String()); err == nil {
				sum.CodePage = uint32(uint16(cp))
			}
		}
	}
	if sum.CodePage == 0 {
		sum.CodePage = codepage.Western
	}

	str := func(name string) string {
		switch t := raw[name].(type) {
		case *types.CodeString:
			b := t.Chars
			if sum.CodePage == codepage.UTF16LE {
				return strings.TrimRight(codepage.DecodeUTF16LE(b), "\x00")
			}
			if i := bytes.IndexByte(b, 0); i >= 0 {
				b = b[:i]
			}
			return codepage.Decode(sum.CodePage, b)
		case nil:
			return ""
		default:
			return t.String()
		}
	}
	sum.Template = str("Template")
	sum.CreatingApplication = str("AppName")
	sum.Comments = str("Comments")
	sum.Title = str("Title")
	sum.Subject = str("Subject")
	sum.Author = str("Author")
	return sum, nil
}
