package main

import (
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

func (a *app) newExtractCmd() *cobra.Command {
	var (
		asJSON   bool
		showText bool
	)
	cmd := &cobra.Command{
		Use:   "extract INPUT.pdf",
		Short: "Print the property fields read from a flyer",
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
			l, raw, err := conv.ExtractListing(cmd.Context(), data)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				if err := writeJSON(w, l); err != nil {
					return err
				}
			} else {
				out, err := yaml.Marshal(l)
				if err != nil {
					return err
				}
				if _, err := w.Write(out); err != nil {
					return err
				}
			}
			if showText {
				fmt.Fprintf(w, "---\n%s", raw)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of YAML")
	cmd.Flags().BoolVar(&showText, "text", false, "also print the extracted text")
	return cmd
}
