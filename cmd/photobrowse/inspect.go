package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/photobrowse/internal/config"
	"github.com/nao1215/photobrowse/internal/dispatch"
	"github.com/nao1215/photobrowse/internal/gallery"
	"github.com/nao1215/photobrowse/internal/report"
	"github.com/nao1215/photobrowse/internal/warm"
)

// NewInspectCmd creates the inspect command.
func NewInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [gallery.yaml | name | dir | files... | urls...]",
		Short: "Load every page of a gallery and report on it",
		Long: `Inspect loads every page of a gallery and prints a report: load state,
format, dimensions and size of each photo, its side data, and the EXIF tags
that reveal where, with what or by whom it was taken.

Examples:
  # Plain text report
  photobrowse inspect gallery.yaml

  # Markdown report written to a file
  photobrowse inspect --markdown -o report.md gallery.yaml

  # JSON report of a web page's photos
  photobrowse inspect --json --html https://example.com/album`,
		Args: cobra.ArbitraryArgs,
		RunE: runInspectCmd,
	}

	addSourceFlags(cmd)
	cmd.Flags().IntP("batch", "b", warm.DefaultConcurrency,
		"Number of concurrent downloads")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runInspectCmd executes the inspect command.
func runInspectCmd(cmd *cobra.Command, args []string) error {
	cfg, file, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	src, err := sourceFromFlags(cmd, args)
	if err != nil {
		return err
	}

	logger := newStderrLogger(cmd.ErrOrStderr(), cfg)
	ctx, cancel := signalContext(logger)
	defer cancel()

	s, err := openSession(ctx, cfg, file, src, logger, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := runPages(ctx, s, func(g *gallery.Gallery, loop *dispatch.Loop) []warm.Step {
		return []warm.Step{
			warm.NewLoadStep(g, loop),
			warm.NewMetadataStep(logger),
			warm.NewSidecarStep(s.sidecars(g)),
		}
	}, nil)
	if err != nil {
		return err
	}

	r := report.NewGalleryReport(s.manifest.Title, s.manifest.Source, results, time.Now())
	return outputReport(cmd.OutOrStdout(), cfg, r)
}

// outputReport writes r in the requested format to stdout or cfg.ReportFile.
// A JSON or Markdown report written to a file is echoed as plain text.
func outputReport(stdout io.Writer, cfg *config.Config, r *report.GalleryReport) error {
	plain := report.NewSimpleWriter(stdout,
		report.WithVerbose(cfg.Verbose),
		report.WithLanguage(userLanguage()),
	)

	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		// Reports may carry GPS coordinates; keep them private to the owner.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	case cfg.ReportFile == "":
		writer = plain
	default:
		writer = report.NewSimpleWriter(output,
			report.WithVerbose(cfg.Verbose),
			report.WithLanguage(userLanguage()),
		)
	}
	if cfg.ReportFile != "" && (cfg.JSONReport || cfg.MarkdownReport) {
		writer = report.NewMultiWriter(writer, plain)
	}
	_, err := writer.Write(r)
	return err
}
