// pkg/catalog/catalog.go

// Package catalog analyses a tree of installers concurrently and keeps the
// results in a YAML catalog.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/windowsadmins/setupinfo/pkg/config"
	"github.com/windowsadmins/setupinfo/pkg/extract"
	"github.com/windowsadmins/setupinfo/pkg/logging"
	"github.com/windowsadmins/setupinfo/pkg/manifest"
	"github.com/windowsadmins/setupinfo/pkg/retry"
	"github.com/windowsadmins/setupinfo/pkg/utils"
)

// Item contains an individual entry from the catalog
type Item struct {
	Path              string `yaml:"path"`
	InstallerSha256   string `yaml:"installer_sha256"`
	manifest.Analysis `yaml:",inline"`
}

// Failure records a file that could not be analysed.
type Failure struct {
	Path  string `yaml:"path"`
	Error string `yaml:"error"`
}

// Catalog is the content of a catalog file.
type Catalog struct {
	Items    []Item    `yaml:"items"`
	Failures []Failure `yaml:"failures,omitempty"`
}

// Scan returns the files under root whose extension is in extensions,
// compared case-insensitively, in lexical order.
func Scan(root string, extensions []string) ([]string, error) {
	want := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		want[ext] = true
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !want[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning %s: %w", root, err)
	}
	return paths, nil
}

// Build scans root and analyses every matching file with cfg.Workers
// workers. A file that fails to analyse is recorded as a Failure; only
// cancellation of ctx or a scan error fails the build.
func Build(ctx context.Context, root string, cfg *config.Configuration) (*Catalog, error) {
	paths, err := Scan(root, cfg.Extensions)
	if err != nil {
		return nil, err
	}
	logging.Info("Analysing installers", "root", root, "files", len(paths), "workers", cfg.Workers)

	type result struct {
		item Item
		err  error
	}
	results := make([]result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			item, err := analyse(gctx, path, cfg)
			item.Path = relative(root, path)
			results[i] = result{item: item, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c := &Catalog{}
	for _, r := range results {
		if r.err != nil {
			logging.Warn("Failed to analyse installer", "path", r.item.Path, "error", r.err)
			c.Failures = append(c.Failures, Failure{Path: r.item.Path, Error: r.err.Error()})
			continue
		}
		c.Items = append(c.Items, r.item)
	}
	c.Sort()
	logging.Info("Catalog built", "items", len(c.Items), "failures", len(c.Failures))
	return c, nil
}

// analyse inspects and hashes one file. Failures to open or read the file
// are retried; a file that opens but does not parse fails at once.
func analyse(ctx context.Context, path string, cfg *config.Configuration) (Item, error) {
	policy := retry.RetryConfig{
		MaxRetries:      cfg.Retries,
		InitialInterval: cfg.RetryInterval,
		Multiplier:      2,
	}
	var item Item
	err := retry.Retry(ctx, policy, func() error {
		a, err := extract.AnalyseFile(path, cfg.MaxFileSize)
		if err != nil {
			return classify(err)
		}
		sum, err := utils.FileSHA256(path)
		if err != nil {
			return classify(fmt.Errorf("hashing %s: %w", path, err))
		}
		item = Item{InstallerSha256: sum, Analysis: *a}
		return nil
	})
	return item, err
}

// classify lets I/O errors be retried, except for files that are gone.
func classify(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return retry.Permanent(err)
}

func relative(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Sort orders items by package name, then version, then path.
func (c *Catalog) Sort() {
	sort.SliceStable(c.Items, func(i, j int) bool {
		a, b := c.Items[i], c.Items[j]
		if na, nb := strings.ToLower(a.PackageName), strings.ToLower(b.PackageName); na != nb {
			return na < nb
		}
		if cmp := manifest.CompareVersions(a.Version, b.Version); cmp != 0 {
			return cmp < 0
		}
		return a.Path < b.Path
	})
	sort.Slice(c.Failures, func(i, j int) bool { return c.Failures[i].Path < c.Failures[j].Path })
}

// Write stores the catalog at path as YAML, creating the directory if needed.
func Write(path string, c *Catalog) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create catalogs directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create catalog file: %w", err)
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode catalog to YAML: %w", err)
	}
	return encoder.Close()
}

// Load reads a catalog written by Write.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unable to parse YAML catalog %s: %w", path, err)
	}
	return &c, nil
}
