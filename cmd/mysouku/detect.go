package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) newDetectCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "detect INPUT.pdf",
		Short: "Report the footer band of a flyer without modifying it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.readInput(args[0])
			if err != nil {
				return err
			}
			conv, err := a.converter()
			if err != nil {
				return err
			}
			r, err := conv.DetectFooter(cmd.Context(), data)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), r)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "page size: %.1f x %.1f pt\n", r.PageWidth, r.PageHeight)
			fmt.Fprintf(w, "keywords: %s\n", strings.Join(r.KeywordsFound, ", "))
			fmt.Fprintf(w, "footer: %.1f mm, top at y=%.1f pt (confidence %d)\n",
				r.Decision.HeightMM, r.FooterY, r.Decision.Confidence)
			fmt.Fprintf(w, "rationale: %s\n", r.Decision.Rationale)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}
