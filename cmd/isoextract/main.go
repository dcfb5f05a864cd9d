package main

import (
	"fmt"
	"os"
	"time"

	iso "github.com/bgrewell/iso-kit"
	"github.com/spf13/cobra"
	"github.com/theckman/yacspin"
)

var (
	outputDir string
	noRR      bool
	noJoliet  bool
	noStrip   bool
	quiet     bool
)

func main() {
	root := &cobra.Command{
		Use:   "isoextract <iso-path>",
		Short: "Extract files from an ISO 9660 image to disk",
		Args:  cobra.ExactArgs(1),
		RunE:  runExtract,
	}
	root.Flags().StringVarP(&outputDir, "output", "o", "./extracted", "output directory")
	root.Flags().BoolVar(&noRR, "no-rockridge", false, "disable Rock Ridge extensions")
	root.Flags().BoolVar(&noJoliet, "no-joliet", false, "disable Joliet extensions")
	root.Flags().BoolVar(&noStrip, "no-strip", false, "keep ;version suffixes in extracted names")
	root.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress the progress spinner")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	isoPath := args[0]

	img, err := iso.Open(isoPath,
		iso.WithRockRidgeEnabled(!noRR),
		iso.WithJolietEnabled(!noJoliet),
		iso.WithStripVersionInfo(!noStrip),
	)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", isoPath, err)
	}
	defer img.Close()

	entries, err := img.GetAllEntries()
	if err != nil {
		return fmt.Errorf("failed to walk entries: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	spinner, err := newExtractSpinner()
	if err != nil {
		return fmt.Errorf("failed to start progress spinner: %w", err)
	}
	if spinner != nil {
		if err := spinner.Start(); err != nil {
			return err
		}
		defer spinner.Stop()
	}

	var fileCount, dirCount int
	for _, entry := range entries {
		if entry.IsRootEntry() {
			continue
		}
		if spinner != nil {
			_ = spinner.Message(entry.FullPath())
		}
		if err := entry.ExtractToDisk(outputDir); err != nil {
			return err
		}
		if entry.IsDir() {
			dirCount++
		} else {
			fileCount++
		}
	}

	if spinner != nil {
		_ = spinner.Stop()
		spinner = nil
	}
	fmt.Printf("Extracted %d files and %d directories to %s\n", fileCount, dirCount, outputDir)
	return nil
}

// newExtractSpinner returns nil when --quiet was given; yacspin itself
// detects a non-terminal stdout and no-ops its animation in that case.
func newExtractSpinner() (*yacspin.Spinner, error) {
	if quiet {
		return nil, nil
	}
	cfg := yacspin.Config{
		Frequency:       100 * time.Millisecond,
		CharSet:         yacspin.CharSets[9],
		Suffix:          " extracting",
		SuffixAutoColon: true,
		Message:         "starting",
		StopMessage:     "done",
		StopCharacter:   "✓",
		StopColors:      []string{"fgGreen"},
	}
	return yacspin.New(cfg)
}
