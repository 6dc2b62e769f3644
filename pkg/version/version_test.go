package version

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, "installerinfo")
	assert.Equal(t, "installerinfo version dev (unknown, built unknown, "+runtime.Version()+")\n", buf.String())
	assert.Equal(t, "dev", Version().Version)
}
