package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/photobrowse/internal/config"
)

//go:embed templates/gallery.yaml templates/photobrowse.yaml
var templates embed.FS

// galleryFileName is the default gallery file name.
const galleryFileName = "gallery.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a gallery or configuration template",
		Long: `Init writes a commented gallery template to gallery.yaml, or with
--config a configuration template to .photobrowse.

Examples:
  # Create gallery.yaml in the current directory
  photobrowse init

  # Create a gallery file at a specific path
  photobrowse init -o galleries/holiday.yaml

  # Create .photobrowse
  photobrowse init --config

  # Overwrite an existing file
  photobrowse init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", "",
		"Output file path (default: gallery.yaml, or .photobrowse with --config)")
	cmd.Flags().Bool("config", false,
		"Write a configuration template instead of a gallery")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite an existing file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	configTemplate, err := cmd.Flags().GetBool("config")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	name := "templates/gallery.yaml"
	if configTemplate {
		name = "templates/photobrowse.yaml"
	}
	if outputPath == "" {
		outputPath = galleryFileName
		if configTemplate {
			outputPath = config.DefaultConfigFile
		}
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := templates.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s\n", outputPath)
	if configTemplate {
		fmt.Fprintln(out, "\nEdit it to set the photo API, request headers and gallery names.")
	} else {
		fmt.Fprintf(out, "\nAdd your photos and open it with: photobrowse view %s\n", outputPath)
	}
	return nil
}
