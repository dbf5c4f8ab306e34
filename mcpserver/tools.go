package mcpserver

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tsawler/mysouku"
	"github.com/tsawler/mysouku/listing"
	"github.com/tsawler/mysouku/model"
)

// Decision is a footer decision as reported to clients.
type Decision struct {
	HeightMM   float64 `json:"height_mm"`
	Confidence int     `json:"confidence"`
	Source     string  `json:"source"`
	Rationale  string  `json:"rationale"`
}

func decisionOf(d model.FooterDecision) Decision {
	return Decision{HeightMM: d.HeightMM, Confidence: d.Confidence, Source: d.Source.String(), Rationale: d.Rationale}
}

// Candidate is one detector's proposal as reported to clients.
type Candidate struct {
	HeightMM     float64  `json:"height_mm"`
	Confidence   int      `json:"confidence"`
	Source       string   `json:"source"`
	TopBoundaryY float64  `json:"top_boundary_y"`
	Evidence     []string `json:"evidence"`
}

func candidateOf(c *model.FooterCandidate) *Candidate {
	if c == nil {
		return nil
	}
	return &Candidate{
		HeightMM:     c.HeightMM,
		Confidence:   c.Confidence,
		Source:       c.Source.String(),
		TopBoundaryY: c.TopBoundaryY,
		Evidence:     c.Evidence,
	}
}

// MetadataDetectFooter describes the detect_footer tool.
var MetadataDetectFooter = &mcp.Tool{
	Name: "detect_footer",
	Description: "Find the broker contact band at the bottom of the first page of a real-estate flyer " +
		"(マイソク). Returns the footer keywords found, the band height in millimetres and the confidence " +
		"of the decision. The document is not modified.",
	InputSchema: map[string]interface{}{
		"type":       "object",
		"properties": properties(nil),
	},
}

// InputDetectFooter is the input for the DetectFooter tool.
type InputDetectFooter struct {
	Document
}

// OutputDetectFooter is the output for the DetectFooter tool.
type OutputDetectFooter struct {
	PageWidth     float64    `json:"page_width"`
	PageHeight    float64    `json:"page_height"`
	FooterY       float64    `json:"footer_y"`
	KeywordsFound []string   `json:"keywords_found"`
	Keyword       Candidate  `json:"keyword_candidate"`
	Advice        *Candidate `json:"advisor_candidate,omitempty"`
	Decision      Decision   `json:"decision"`
}

// DetectFooter reports the footer band of the first page.
func (s *Server) DetectFooter(ctx context.Context, _ *mcp.CallToolRequest, input InputDetectFooter) (*mcp.CallToolResult, OutputDetectFooter, error) {
	data, err := s.load(input.Document)
	if err != nil {
		return nil, OutputDetectFooter{}, err
	}
	r, err := s.conv.DetectFooter(ctx, data)
	if err != nil {
		return nil, OutputDetectFooter{}, err
	}
	kw := candidateOf(&r.Keyword)
	return nil, OutputDetectFooter{
		PageWidth:     r.PageWidth,
		PageHeight:    r.PageHeight,
		FooterY:       r.FooterY,
		KeywordsFound: r.KeywordsFound,
		Keyword:       *kw,
		Advice:        candidateOf(r.Advice),
		Decision:      decisionOf(r.Decision),
	}, nil
}

// MetadataExtractListing describes the extract_listing tool.
var MetadataExtractListing = &mcp.Tool{
	Name: "extract_listing",
	Description: "Read the property fields of a real-estate flyer: property and transaction type, price, " +
		"address, access, areas, floor plan, building age, structure, parking and equipment features. " +
		"Unrecognised fields are empty.",
	InputSchema: map[string]interface{}{
		"type": "object",
		"properties": properties(map[string]interface{}{
			"include_text": map[string]interface{}{
				"type":        "boolean",
				"description": "Also return the text the fields were read from.",
			},
		}),
	},
}

// InputExtractListing is the input for the ExtractListing tool.
type InputExtractListing struct {
	Document
	IncludeText bool `json:"include_text"`
}

// OutputExtractListing is the output for the ExtractListing tool.
type OutputExtractListing struct {
	Listing listing.Listing `json:"listing"`
	Text    string          `json:"text,omitempty"`
}

// ExtractListing recognises the property fields of a flyer.
func (s *Server) ExtractListing(ctx context.Context, _ *mcp.CallToolRequest, input InputExtractListing) (*mcp.CallToolResult, OutputExtractListing, error) {
	data, err := s.load(input.Document)
	if err != nil {
		return nil, OutputExtractListing{}, err
	}
	l, raw, err := s.conv.ExtractListing(ctx, data)
	if err != nil {
		return nil, OutputExtractListing{}, err
	}
	out := OutputExtractListing{Listing: *l}
	if input.IncludeText {
		out.Text = raw
	}
	return nil, out, nil
}

// MetadataConvertFlyer describes the convert_flyer tool.
var MetadataConvertFlyer = &mcp.Tool{
	Name: "convert_flyer",
	Description: "Replace the broker contact band of a real-estate flyer with your own company details. " +
		"The profile comes from the profile argument or, when omitted, from the configured profile store. " +
		"The converted PDF is written to output_path or returned base64 encoded.",
	InputSchema: map[string]interface{}{
		"type": "object",
		"properties": properties(map[string]interface{}{
			"output_path": map[string]interface{}{
				"type":        "string",
				"description": "Where to write the converted .pdf. When omitted the PDF is returned as pdf_base64.",
			},
			"profile": map[string]interface{}{
				"type":        "object",
				"description": "Broker profile to print. company_name is required.",
				"properties": map[string]interface{}{
					"company_name":        map[string]interface{}{"type": "string"},
					"company_name_kana":   map[string]interface{}{"type": "string"},
					"postal_code":         map[string]interface{}{"type": "string"},
					"address":             map[string]interface{}{"type": "string"},
					"phone":               map[string]interface{}{"type": "string"},
					"fax":                 map[string]interface{}{"type": "string"},
					"email":               map[string]interface{}{"type": "string"},
					"website":             map[string]interface{}{"type": "string"},
					"license_number":      map[string]interface{}{"type": "string"},
					"representative_name": map[string]interface{}{"type": "string"},
				},
			},
		}),
	},
}

// InputConvertFlyer is the input for the ConvertFlyer tool.
type InputConvertFlyer struct {
	Document
	OutputPath string               `json:"output_path"`
	Profile    *model.BrokerProfile `json:"profile"`
}

// PageOutcome is the result for one page.
type PageOutcome struct {
	Index        int    `json:"index"`
	Status       string `json:"status"`
	FontFallback bool   `json:"font_fallback,omitempty"`
	Error        string `json:"error,omitempty"`
}

// OutputConvertFlyer is the output for the ConvertFlyer tool.
type OutputConvertFlyer struct {
	ID         string        `json:"id"`
	Decision   Decision      `json:"decision"`
	Pages      []PageOutcome `json:"pages"`
	Overlaid   int           `json:"overlaid"`
	OutputPath string        `json:"output_path,omitempty"`
	PDFBase64  string        `json:"pdf_base64,omitempty"`
}

// ConvertFlyer rebrands a flyer with the broker profile.
func (s *Server) ConvertFlyer(ctx context.Context, _ *mcp.CallToolRequest, input InputConvertFlyer) (*mcp.CallToolResult, OutputConvertFlyer, error) {
	if input.OutputPath != "" && !strings.EqualFold(filepath.Ext(input.OutputPath), ".pdf") {
		return nil, OutputConvertFlyer{}, fmt.Errorf("output_path %s: %w", input.OutputPath, mysouku.ErrNotPDF)
	}
	data, err := s.load(input.Document)
	if err != nil {
		return nil, OutputConvertFlyer{}, err
	}

	var p model.BrokerProfile
	switch {
	case input.Profile != nil:
		p = *input.Profile
	case s.store != nil:
		if p, err = s.store.Fetch(ctx); err != nil {
			return nil, OutputConvertFlyer{}, fmt.Errorf("load profile: %w", err)
		}
	default:
		return nil, OutputConvertFlyer{}, mysouku.ErrProfileMissing
	}

	doc, err := s.conv.Convert(ctx, data, p)
	if err != nil {
		return nil, OutputConvertFlyer{}, err
	}

	out := OutputConvertFlyer{
		ID:       doc.ID,
		Decision: decisionOf(doc.Decision),
		Pages:    make([]PageOutcome, len(doc.Pages)),
		Overlaid: doc.OverlaidCount(),
	}
	for i, pr := range doc.Pages {
		out.Pages[i] = PageOutcome{Index: pr.Index, Status: pr.StatusText, FontFallback: pr.FontFallback, Error: pr.Err}
	}

	if input.OutputPath != "" {
		if err := os.WriteFile(input.OutputPath, doc.Bytes, 0o644); err != nil {
			return nil, OutputConvertFlyer{}, err
		}
		out.OutputPath = input.OutputPath
	} else {
		out.PDFBase64 = base64.StdEncoding.EncodeToString(doc.Bytes)
	}
	return nil, out, nil
}

// MetadataGetProfile describes the get_profile tool.
var MetadataGetProfile = &mcp.Tool{
	Name:        "get_profile",
	Description: "Return the broker profile that convert_flyer prints when no profile argument is given.",
	InputSchema: map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	},
}

// InputGetProfile is the input for the GetProfile tool.
type InputGetProfile struct{}

// OutputGetProfile is the output for the GetProfile tool.
type OutputGetProfile struct {
	CompanyName        string `json:"company_name"`
	CompanyNameReading string `json:"company_name_kana"`
	PostalCode         string `json:"postal_code"`
	Address            string `json:"address"`
	Phone              string `json:"phone"`
	Fax                string `json:"fax"`
	Email              string `json:"email"`
	Website            string `json:"website"`
	LicenseNumber      string `json:"license_number"`
	RepresentativeName string `json:"representative_name"`
	HasLogo            bool   `json:"has_logo"`
}

// GetProfile returns the stored broker profile.
func (s *Server) GetProfile(ctx context.Context, _ *mcp.CallToolRequest, _ InputGetProfile) (*mcp.CallToolResult, OutputGetProfile, error) {
	if s.store == nil {
		return nil, OutputGetProfile{}, errors.New("no profile store configured")
	}
	p, err := s.store.Fetch(ctx)
	if err != nil {
		return nil, OutputGetProfile{}, err
	}
	return nil, OutputGetProfile{
		CompanyName:        p.CompanyName,
		CompanyNameReading: p.CompanyNameReading,
		PostalCode:         p.PostalCode,
		Address:            p.Address,
		Phone:              p.Phone,
		Fax:                p.Fax,
		Email:              p.Email,
		Website:            p.Website,
		LicenseNumber:      p.LicenseNumber,
		RepresentativeName: p.RepresentativeName,
		HasLogo:            len(p.Logo) > 0,
	}, nil
}
