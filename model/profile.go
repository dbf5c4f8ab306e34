package model

import (
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// BrokerProfile is the identity of the brokerage the flyer is rebranded for.
type BrokerProfile struct {
	CompanyName        string `json:"company_name" yaml:"company_name" validate:"required"`
	CompanyNameReading string `json:"company_name_kana,omitempty" yaml:"company_name_kana,omitempty"`
	PostalCode         string `json:"postal_code,omitempty" yaml:"postal_code,omitempty"`
	Address            string `json:"address,omitempty" yaml:"address,omitempty"`
	Phone              string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Fax                string `json:"fax,omitempty" yaml:"fax,omitempty"`
	Email              string `json:"email,omitempty" yaml:"email,omitempty" validate:"omitempty,email"`
	Website            string `json:"website,omitempty" yaml:"website,omitempty"`
	LicenseNumber      string `json:"license_number,omitempty" yaml:"license_number,omitempty"`
	RepresentativeName string `json:"representative_name,omitempty" yaml:"representative_name,omitempty"`
	Logo               []byte `json:"logo,omitempty" yaml:"-"`
}

// HasIdentity reports whether the profile names a company.
func (p BrokerProfile) HasIdentity() bool {
	return strings.TrimSpace(p.CompanyName) != ""
}

// Normalized returns a copy with surrounding whitespace removed and an
// internationalised website host rendered in its Unicode form, which is how
// it should be printed on a flyer.
func (p BrokerProfile) Normalized() BrokerProfile {
	out := p
	out.CompanyName = strings.TrimSpace(p.CompanyName)
	out.CompanyNameReading = strings.TrimSpace(p.CompanyNameReading)
	out.PostalCode = strings.TrimSpace(p.PostalCode)
	out.Address = strings.TrimSpace(p.Address)
	out.Phone = strings.TrimSpace(p.Phone)
	out.Fax = strings.TrimSpace(p.Fax)
	out.Email = strings.TrimSpace(p.Email)
	out.Website = displayWebsite(strings.TrimSpace(p.Website))
	out.LicenseNumber = strings.TrimSpace(p.LicenseNumber)
	out.RepresentativeName = strings.TrimSpace(p.RepresentativeName)
	return out
}

func displayWebsite(site string) string {
	if site == "" {
		return ""
	}
	raw := site
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return site
	}
	host, err := idna.Display.ToUnicode(u.Hostname())
	if err != nil || host == u.Hostname() {
		return site
	}
	return strings.Replace(site, u.Hostname(), host, 1)
}
