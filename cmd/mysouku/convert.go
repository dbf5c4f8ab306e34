package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsawler/mysouku"
	"github.com/tsawler/mysouku/model"
)

func (a *app) newConvertCmd() *cobra.Command {
	var (
		output  string
		perPage bool
		report  bool
	)
	cmd := &cobra.Command{
		Use:   "convert INPUT.pdf",
		Short: "Replace the footer band of a flyer with the stored broker profile",
		Long: "Detects the footer band on the first page, covers it on every page and prints the\n" +
			"stored broker profile in its place. The output defaults to INPUT_converted.pdf.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := args[0]
			if output == "" {
				output = strings.TrimSuffix(in, filepath.Ext(in)) + "_converted.pdf"
			}
			if !strings.EqualFold(filepath.Ext(output), ".pdf") {
				return fmt.Errorf("%s: %w", output, mysouku.ErrNotPDF)
			}
			if cmd.Flags().Changed("per-page") {
				a.cfg.Converter.PerPage = perPage
			}

			data, err := a.readInput(in)
			if err != nil {
				return err
			}

			store, closeStore, err := a.profileStore()
			if err != nil {
				return err
			}
			defer closeStore()
			p, err := store.Fetch(cmd.Context())
			if err != nil {
				return fmt.Errorf("load profile: %w (set one with \"mysouku profile set\")", err)
			}

			conv, err := a.converter()
			if err != nil {
				return err
			}
			doc, err := conv.Convert(cmd.Context(), data, p)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, doc.Bytes, 0o644); err != nil {
				return err
			}

			if report {
				return writeJSON(cmd.OutOrStdout(), doc)
			}
			printSummary(cmd, output, doc)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output .pdf path")
	cmd.Flags().BoolVar(&perPage, "per-page", false, "decide the band height for each page separately")
	cmd.Flags().BoolVar(&report, "json", false, "print the conversion report as JSON")
	return cmd
}

func printSummary(cmd *cobra.Command, output string, doc *model.ConvertedDocument) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "wrote %s\n", output)
	fmt.Fprintf(w, "footer: %.1f mm (confidence %d, %s)\n",
		doc.Decision.HeightMM, doc.Decision.Confidence, doc.Decision.Source)
	fmt.Fprintf(w, "pages: %d of %d overlaid\n", doc.OverlaidCount(), len(doc.Pages))
	for _, p := range doc.Pages {
		if p.Err != "" {
			fmt.Fprintf(w, "  page %d kept original: %s\n", p.Index+1, p.Err)
		}
	}
}
