package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name               string
		flag, outDir, root string
		want               string
	}{
		{"flag wins", "custom.yaml", "out", "repo", "custom.yaml"},
		{"output dir", "", "out", "repo", filepath.Join("out", "catalog.yaml")},
		{"scanned dir", "", "", "repo", filepath.Join("repo", "catalog.yaml")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, outputPath(tt.flag, tt.outDir, tt.root))
		})
	}
}
