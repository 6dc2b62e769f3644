// cmd/installerinfo/main.go

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"gopkg.in/yaml.v3"

	"github.com/windowsadmins/setupinfo/pkg/catalog"
	"github.com/windowsadmins/setupinfo/pkg/config"
	"github.com/windowsadmins/setupinfo/pkg/extract"
	"github.com/windowsadmins/setupinfo/pkg/logging"
	"github.com/windowsadmins/setupinfo/pkg/utils"
	"github.com/windowsadmins/setupinfo/pkg/version"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath(), "Path to the configuration file.")
	interactive := flag.Bool("interactive", false, "Review the package name and publisher before printing.")
	debug := flag.Bool("debug", false, "Enable debug logging.")
	verbose := flag.Bool("verbose", false, "Enable verbose logging.")
	showVersion := flag.Bool("version", false, "Print the version and exit.")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: installerinfo [options] FILE...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		version.Print(os.Stdout, "installerinfo")
		return
	}
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.Debug = cfg.Debug || *debug
	cfg.Verbose = cfg.Verbose || *verbose
	if err := logging.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.CloseLogger()

	failed := false
	printed := 0
	for _, path := range flag.Args() {
		item, err := inspect(path, cfg.MaxFileSize)
		if err != nil {
			logging.Error("Failed to analyse installer", "path", path, "error", err)
			failed = true
			continue
		}
		if *interactive {
			if err := review(item); err != nil {
				logging.Error("Review aborted", "path", path, "error", err)
				failed = true
				break
			}
		}
		if cfg.OutputDir != "" {
			if err := writeItem(cfg.OutputDir, item); err != nil {
				logging.Error("Failed to write output", "path", path, "error", err)
				failed = true
			}
			continue
		}
		if printed > 0 {
			fmt.Println("---")
		}
		if err := printItem(os.Stdout, item); err != nil {
			logging.Error("Error marshaling YAML", "path", path, "error", err)
			failed = true
			continue
		}
		printed++
	}
	if failed {
		os.Exit(1)
	}
}

// inspect analyses one file and hashes it.
func inspect(path string, maxSize int64) (*catalog.Item, error) {
	a, err := extract.AnalyseFile(path, maxSize)
	if err != nil {
		return nil, err
	}
	sum, err := utils.FileSHA256(path)
	if err != nil {
		return nil, fmt.Errorf("hashing %s: %w", path, err)
	}
	logging.Info("Analysed installer", "path", path, "name", a.PackageName, "version", a.Version)
	return &catalog.Item{Path: path, InstallerSha256: sum, Analysis: *a}, nil
}

// review lets the user confirm or override the package name and publisher.
func review(item *catalog.Item) error {
	fmt.Fprintf(os.Stderr, "%s: %d installer(s), version %q\n", item.FileName, len(item.Installers), item.Version)

	name := item.PackageName
	if err := survey.AskOne(&survey.Input{
		Message: "Package name:",
		Default: fallbackName(item),
	}, &name, survey.WithValidator(survey.Required), survey.WithStdio(os.Stdin, os.Stderr, os.Stderr)); err != nil {
		return err
	}
	publisher := item.Publisher
	if err := survey.AskOne(&survey.Input{
		Message: "Publisher:",
		Default: item.Publisher,
	}, &publisher, survey.WithStdio(os.Stdin, os.Stderr, os.Stderr)); err != nil {
		return err
	}

	ok := true
	if err := survey.AskOne(&survey.Confirm{
		Message: fmt.Sprintf("Use %q by %q?", name, publisher),
		Default: true,
	}, &ok, survey.WithStdio(os.Stdin, os.Stderr, os.Stderr)); err != nil {
		return err
	}
	if !ok {
		return errors.New("rejected by user")
	}
	item.PackageName = strings.TrimSpace(name)
	item.Publisher = strings.TrimSpace(publisher)
	return nil
}

// fallbackName is the file name without its extension, used when the
// installer carries no product name.
func fallbackName(item *catalog.Item) string {
	if item.PackageName != "" {
		return item.PackageName
	}
	return strings.TrimSuffix(item.FileName, filepath.Ext(item.FileName))
}

func printItem(w io.Writer, item *catalog.Item) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(item); err != nil {
		return err
	}
	return encoder.Close()
}

// writeItem stores the result as <file name>.yaml in dir.
func writeItem(dir string, item *catalog.Item) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, item.FileName+".yaml"))
	if err != nil {
		return err
	}
	defer f.Close()
	if err := printItem(f, item); err != nil {
		return err
	}
	logging.Info("Wrote installer metadata", "path", f.Name())
	return nil
}
