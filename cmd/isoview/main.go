package main

import (
	"fmt"
	"os"
	"strings"

	iso "github.com/bgrewell/iso-kit"
	"github.com/bgrewell/iso-kit/pkg/directory"
	"github.com/bgrewell/iso-kit/pkg/logging"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

var (
	verbose    bool
	trace      bool
	noRR       bool
	noJoliet   bool
	configPath string
)

// viewConfig holds defaults for flags the user didn't pass on the command
// line, loaded from --config. Flags explicitly set on the command line
// always win over the file.
type viewConfig struct {
	Verbose   *bool `yaml:"verbose"`
	RockRidge *bool `yaml:"rock_ridge"`
	Joliet    *bool `yaml:"joliet"`
}

func loadViewConfig(path string) (viewConfig, error) {
	var cfg viewConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

func main() {
	root := &cobra.Command{
		Use:   "isoview <iso-path>",
		Short: "Inspect ISO 9660 images with Joliet and Rock Ridge extensions",
		Args:  cobra.ExactArgs(1),
		RunE:  runView,
	}
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "print verbose metadata")
	root.Flags().BoolVar(&trace, "trace", false, "enable trace-level logging")
	root.Flags().BoolVar(&noRR, "no-rockridge", false, "disable Rock Ridge extensions")
	root.Flags().BoolVar(&noJoliet, "no-joliet", false, "disable Joliet extensions")
	root.Flags().StringVar(&configPath, "config", "", "YAML file with default mount options (verbose, rock_ridge, joliet)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runView(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		cfg, err := loadViewConfig(configPath)
		if err != nil {
			return err
		}
		if cfg.Verbose != nil && !cmd.Flags().Changed("verbose") {
			verbose = *cfg.Verbose
		}
		if cfg.RockRidge != nil && !cmd.Flags().Changed("no-rockridge") {
			noRR = !*cfg.RockRidge
		}
		if cfg.Joliet != nil && !cmd.Flags().Changed("no-joliet") {
			noJoliet = !*cfg.Joliet
		}
	}

	openOpts := []iso.Option{
		iso.WithRockRidgeEnabled(!noRR),
		iso.WithJolietEnabled(!noJoliet),
	}
	if trace {
		openOpts = append(openOpts, iso.WithLogger(logging.NewSimpleLogger(os.Stderr, logging.LEVEL_TRACE, true)))
	}

	img, err := iso.Open(args[0], openOpts...)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer img.Close()

	entries, err := img.GetAllEntries()
	if err != nil {
		return fmt.Errorf("failed to walk entries: %w", err)
	}

	var dirCount, fileCount, symlinkCount int
	var totalSize int64
	for _, e := range entries {
		switch {
		case e.IsSymlink():
			symlinkCount++
		case e.IsDir():
			dirCount++
		default:
			fileCount++
			totalSize += e.Size()
		}
	}

	fields := []struct{ label, value string }{
		{"Volume Name", img.VolumeIdentifier()},
		{"System Identifier", img.SystemIdentifier()},
		{"Publisher", img.PublisherIdentifier()},
		{"Data Preparer", img.DataPreparerIdentifier()},
		{"Application", img.ApplicationIdentifier()},
	}
	labelWidth := 0
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if n := uniseg.GraphemeClusterCount(f.label); n > labelWidth {
			labelWidth = n
		}
	}

	fmt.Println("=== ISO Information ===")
	for _, f := range fields {
		printIfSet(f.label, f.value, labelWidth)
	}
	fmt.Printf("Block Size: %d bytes\n", img.BlockSize())
	fmt.Printf("Rock Ridge Active: %v\n", img.HasRockRidge())
	fmt.Printf("Directories: %d\n", dirCount)
	fmt.Printf("Files: %d\n", fileCount)
	fmt.Printf("Symlinks: %d\n", symlinkCount)
	fmt.Printf("Total File Size: %d bytes (%.2f MB)\n", totalSize, float64(totalSize)/1024/1024)

	if verbose {
		fmt.Println("\n=== Directory Tree ===")
		printTree(entries)
	}

	return nil
}

func printIfSet(label, value string, labelWidth int) {
	if value == "" {
		return
	}
	pad := labelWidth - uniseg.GraphemeClusterCount(label)
	if pad < 0 {
		pad = 0
	}
	fmt.Printf("%s%s: %s\n", label, strings.Repeat(" ", pad), value)
}

// printTree renders entries indented by their path depth. GetAllEntries
// returns them in breadth-first order, so a parent always precedes its
// children. Names are truncated to the terminal width, accounting for
// double-width runes (Joliet identifiers may be CJK), when stdout is a
// terminal; output is left untruncated when redirected to a file or pipe.
func printTree(entries []*directory.DirectoryEntry) {
	width := 0
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width = w
		}
	}

	for _, entry := range entries {
		if entry.IsRootEntry() {
			fmt.Println("/")
			continue
		}
		depth := strings.Count(strings.Trim(entry.FullPath(), "/"), "/")
		indent := strings.Repeat("  ", depth+1)
		name := entry.Name()
		if avail := width - len(indent); width > 0 && avail > 0 {
			name = runewidth.Truncate(name, avail, "...")
		}
		fmt.Printf("%s%s\n", indent, name)
	}
}
