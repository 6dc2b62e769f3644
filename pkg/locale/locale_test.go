package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromLCID(t *testing.T) {
	tests := []struct {
		lcid uint32
		want string
	}{
		{0x0409, "en-US"},
		{0x0407, "de-DE"},
		{0x040c, "fr-FR"},
		{0x0c07, "de-AT"},
		{0x0c04, "zh-HK"},
		{0x0000, ""},
		{0xffff, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FromLCID(tt.lcid), "lcid %#04x", tt.lcid)
	}
}
