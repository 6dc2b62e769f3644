// cmd/makecatalogs/main.go

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/windowsadmins/setupinfo/pkg/catalog"
	"github.com/windowsadmins/setupinfo/pkg/config"
	"github.com/windowsadmins/setupinfo/pkg/logging"
	"github.com/windowsadmins/setupinfo/pkg/version"
)

// outputPath picks the catalog file: the flag, else catalog.yaml in the
// configured output directory, else in the scanned directory.
func outputPath(flagValue, outputDir, root string) string {
	if flagValue != "" {
		return flagValue
	}
	if outputDir != "" {
		return filepath.Join(outputDir, "catalog.yaml")
	}
	return filepath.Join(root, "catalog.yaml")
}

func main() {
	configPath := flag.String("config", config.DefaultConfigPath(), "Path to the configuration file.")
	workers := flag.Int("workers", 0, "Number of files analysed at once (default from config).")
	output := flag.String("output", "", "Catalog file to write.")
	debug := flag.Bool("debug", false, "Enable debug logging.")
	showVersion := flag.Bool("version", false, "Print the version and exit.")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: makecatalogs [options] DIR\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		version.Print(os.Stdout, "makecatalogs")
		return
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	root := flag.Arg(0)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	cfg.Debug = cfg.Debug || *debug
	if err := logging.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.CloseLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c, err := catalog.Build(ctx, root, cfg)
	if err != nil {
		logging.Error("Error building catalog", "root", root, "error", err)
		os.Exit(1)
	}

	dest := outputPath(*output, cfg.OutputDir, root)
	if err := catalog.Write(dest, c); err != nil {
		logging.Error("Error writing catalog", "path", dest, "error", err)
		os.Exit(1)
	}
	fmt.Printf("Catalog updated successfully: %s (%d items, %d failures)\n", dest, len(c.Items), len(c.Failures))
}
