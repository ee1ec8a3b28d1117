package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/smartpdf/smartpdf/internal/pdfops"
)

// newMergeCmd creates the merge subcommand for local batch merging.
func newMergeCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "merge <file.pdf> <file.pdf> [more.pdf...]",
		Short: "Merge local PDF files into one document",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := model.NewDefaultConfiguration()
			conf.ValidationMode = model.ValidationRelaxed

			bar := progressbar.NewOptions(len(args),
				progressbar.OptionSetDescription("Validating inputs"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionClearOnFinish(),
			)

			for _, path := range args {
				if !pdfops.HasPDFExtension(path) {
					return fmt.Errorf("not a PDF file: %s", path)
				}
				if err := pdfops.SniffPDF(path); err != nil {
					return fmt.Errorf("%s: not a PDF", path)
				}
				if err := api.ValidateFile(path, conf); err != nil {
					return fmt.Errorf("invalid PDF file %s: %w", path, err)
				}
				bar.Add(1)
			}

			if err := api.MergeCreateFile(args, output, false, conf); err != nil {
				return fmt.Errorf("merge failed: %w", err)
			}

			info, err := os.Stat(output)
			if err != nil {
				return fmt.Errorf("stat output: %w", err)
			}

			pages, err := api.PageCountFile(output)
			if err != nil {
				return fmt.Errorf("count pages: %w", err)
			}

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"output": output,
					"inputs": len(args),
					"pages":  pages,
					"bytes":  info.Size(),
				})
			}

			color.Green("✓ Merged %d files into %s", len(args), output)
			fmt.Printf("  Pages: %d\n", pages)
			fmt.Printf("  Size:  %d bytes\n", info.Size())

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "merged.pdf", "output file path")

	return cmd
}
