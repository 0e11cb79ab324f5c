package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/BerylCAtieno/document-extractor/internal/config"
	"github.com/BerylCAtieno/document-extractor/internal/models"
	"github.com/BerylCAtieno/document-extractor/internal/services"
	"github.com/BerylCAtieno/document-extractor/internal/utils"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract structured data from a PDF or image without starting the server",
	Example: `  # Print the extraction as JSON
  document-extractor extract invoice.pdf

  # Write the fields as a spreadsheet
  document-extractor extract receipt.jpg --format xlsx -o receipt.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("format", "f", "json", "Output format: json, csv or xlsx")
	extractCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	extractCmd.Flags().BoolP("verbose", "v", false, "Log to stderr")
}

func runExtract(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	verbose, _ := cmd.Flags().GetBool("verbose")

	a, err := cliApp(cmd.Context(), verbose)
	if err != nil {
		return err
	}

	resp, err := extractFile(cmd.Context(), a, args[0])
	if err != nil {
		return err
	}

	var data []byte
	if format == "json" {
		data, err = json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		data = append(data, '\n')
	} else {
		file, err := a.services.Export.Export(cmd.Context(), resp.ID, format)
		if err != nil {
			return err
		}
		data = file.Data
	}

	return writeOutput(cmd.OutOrStdout(), outputPath, data)
}

// cliApp builds the app with logging sent to stderr only when asked for.
func cliApp(ctx context.Context, verbose bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := utils.NewNopLogger()
	if verbose {
		logger = utils.NewLogger(cfg.LogLevel, cfg.LogFile)
	}
	return newApp(ctx, cfg, logger)
}

func extractFile(ctx context.Context, a *app, path string) (*models.ExtractResponse, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", path, err)
	}
	if info.Size() > a.cfg.MaxFileSize {
		return nil, fmt.Errorf("%s exceeds the %d byte limit", path, a.cfg.MaxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	filename := filepath.Base(path)
	return a.services.Documents.Extract(ctx, &models.ExtractRequest{
		File:        data,
		Filename:    filename,
		ContentType: services.ResolveMediaType(filename, ""),
	})
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
