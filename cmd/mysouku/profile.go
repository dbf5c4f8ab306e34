package main

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/tsawler/mysouku/model"
	"github.com/tsawler/mysouku/profile"
)

func (a *app) newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or change the broker profile printed on converted flyers",
	}
	cmd.AddCommand(a.newProfileShowCmd(), a.newProfileSetCmd())
	return cmd
}

func (a *app) newProfileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeStore, err := a.profileStore()
			if err != nil {
				return err
			}
			defer closeStore()

			p, err := store.Fetch(cmd.Context())
			if errors.Is(err, profile.ErrNotFound) {
				return fmt.Errorf("no profile stored in %s store", a.cfg.Profile.Store)
			}
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(p)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func (a *app) newProfileSetCmd() *cobra.Command {
	var p model.BrokerProfile
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the broker profile",
		Long: "Updates the stored profile with the given flags; fields without a flag keep\n" +
			"their stored value. With the env store the encoded value to export is printed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeStore, err := a.profileStore()
			if err != nil {
				return err
			}
			defer closeStore()

			cur, err := store.Fetch(cmd.Context())
			if err != nil && !errors.Is(err, profile.ErrNotFound) {
				return err
			}
			merge(&cur, p, cmd)

			if err := store.Save(cmd.Context(), cur); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if es, ok := store.(*profile.EnvStore); ok {
				fmt.Fprintf(w, "export %s=%s\n", a.cfg.Profile.EnvVar, es.Encoded())
				return nil
			}
			fmt.Fprintf(w, "profile saved for %s\n", cur.CompanyName)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&p.CompanyName, "company-name", "", "company name (required when nothing is stored)")
	f.StringVar(&p.CompanyNameReading, "company-name-kana", "", "reading of the company name")
	f.StringVar(&p.PostalCode, "postal-code", "", "postal code, e.g. 100-0001")
	f.StringVar(&p.Address, "address", "", "street address")
	f.StringVar(&p.Phone, "phone", "", "telephone number")
	f.StringVar(&p.Fax, "fax", "", "fax number")
	f.StringVar(&p.Email, "email", "", "email address")
	f.StringVar(&p.Website, "website", "", "website")
	f.StringVar(&p.LicenseNumber, "license", "", "real-estate license number")
	f.StringVar(&p.RepresentativeName, "representative", "", "representative name")
	return cmd
}

// merge copies the fields whose flags were set from src to dst.
func merge(dst *model.BrokerProfile, src model.BrokerProfile, cmd *cobra.Command) {
	set := func(flag string, to *string, v string) {
		if cmd.Flags().Changed(flag) {
			*to = v
		}
	}
	set("company-name", &dst.CompanyName, src.CompanyName)
	set("company-name-kana", &dst.CompanyNameReading, src.CompanyNameReading)
	set("postal-code", &dst.PostalCode, src.PostalCode)
	set("address", &dst.Address, src.Address)
	set("phone", &dst.Phone, src.Phone)
	set("fax", &dst.Fax, src.Fax)
	set("email", &dst.Email, src.Email)
	set("website", &dst.Website, src.Website)
	set("license", &dst.LicenseNumber, src.LicenseNumber)
	set("representative", &dst.RepresentativeName, src.RepresentativeName)
}
