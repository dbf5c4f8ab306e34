// Package listing pulls the structured property fields out of the text of a
// real-estate flyer: price, location, areas, floor plan and the like.
//
// Extraction is pattern based. Each field has an ordered list of
// expressions and the first one that matches wins, so labelled values
// ("賃料：12万円") are preferred over bare ones ("12万円").
package listing

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

// Listing holds the fields recognised on a flyer. Unrecognised fields are
// empty.
type Listing struct {
	PropertyType    string   `json:"property_type" yaml:"property_type"`
	TransactionType string   `json:"transaction_type" yaml:"transaction_type"`
	Price           string   `json:"price" yaml:"price"`
	Address         string   `json:"address" yaml:"address"`
	Access          string   `json:"access" yaml:"access"`
	BuildingArea    string   `json:"building_area" yaml:"building_area"`
	LandArea        string   `json:"land_area" yaml:"land_area"`
	FloorPlan       string   `json:"floor_plan" yaml:"floor_plan"`
	BuildingAge     string   `json:"building_age" yaml:"building_age"`
	Structure       string   `json:"structure" yaml:"structure"`
	Parking         string   `json:"parking" yaml:"parking"`
	Features        []string `json:"features" yaml:"features"`
}

// IsEmpty reports whether nothing was recognised.
func (l Listing) IsEmpty() bool {
	return l.PropertyType == "" && l.TransactionType == "" && l.Price == "" &&
		l.Address == "" && l.Access == "" && l.BuildingArea == "" && l.LandArea == "" &&
		l.FloorPlan == "" && l.BuildingAge == "" && l.Structure == "" && l.Parking == "" &&
		len(l.Features) == 0
}

type field struct {
	set      func(*Listing, string)
	patterns []*regexp.Regexp
}

// Patterns are matched against width-folded text, so full-width digits,
// letters and colons arrive as their ASCII forms.
var fields = []field{
	{
		set: func(l *Listing, v string) { l.Price = v },
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`賃料:\s*([0-9,.]+万円)`),
			regexp.MustCompile(`価格:\s*([0-9,.]+万円)`),
			regexp.MustCompile(`([0-9,.]+万円)`),
		},
	},
	{
		set: func(l *Listing, v string) { l.Address = v },
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?m)所在地:\s*([^\n]+?)\s*(?:交通|$)`),
			regexp.MustCompile(`(?m)住所:\s*([^\n]+?)\s*$`),
		},
	},
	{
		set: func(l *Listing, v string) { l.Access = v },
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?m)交通:\s*([^\n]+?)\s*(?:建物|$)`),
			regexp.MustCompile(`(?m)最寄り駅:\s*([^\n]+?)\s*$`),
		},
	},
	{
		set: func(l *Listing, v string) { l.BuildingArea = v },
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`建物面積:\s*([0-9.]+(?:㎡|m2|m²))`),
			regexp.MustCompile(`専有面積:\s*([0-9.]+(?:㎡|m2|m²))`),
		},
	},
	{
		set: func(l *Listing, v string) { l.LandArea = v },
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`土地面積:\s*([0-9.]+(?:㎡|m2|m²))`),
		},
	},
	{
		set: func(l *Listing, v string) { l.FloorPlan = v },
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`間取り:\s*([0-9]S?[LDK]+)`),
			regexp.MustCompile(`(?i)\b([0-9]S?[LDK]+)\b`),
		},
	},
	{
		set: func(l *Listing, v string) { l.BuildingAge = v },
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`築年数:\s*([0-9]+年)`),
			regexp.MustCompile(`築:\s*([0-9]+年)`),
			regexp.MustCompile(`築([0-9]+年)`),
		},
	},
	{
		set: func(l *Listing, v string) { l.Structure = v },
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?m)構造:\s*([^\n]+?)\s*$`),
		},
	},
	{
		set: func(l *Listing, v string) { l.Parking = v },
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?m)駐車場:\s*([^\n]+?)\s*$`),
		},
	},
}

// propertyTypes are checked in order; the first present wins.
var propertyTypes = []struct {
	label string
	terms []string
}{
	{"マンション", []string{"マンション"}},
	{"アパート", []string{"アパート"}},
	{"戸建て", []string{"一戸建て", "戸建"}},
	{"土地", []string{"土地"}},
}

// FeatureKeywords are the equipment terms reported in Listing.Features.
var FeatureKeywords = []string{
	"エアコン", "バス・トイレ別", "オートロック", "宅配ボックス",
	"ペット可", "駐輪場", "エレベーター", "バルコニー", "フローリング",
	"都市ガス", "プロパンガス", "IHクッキングヒーター", "システムキッチン",
}

// Extract recognises listing fields in text.
func Extract(text string) Listing {
	folded := width.Fold.String(text)

	var l Listing
	for _, f := range fields {
		for _, re := range f.patterns {
			if m := re.FindStringSubmatch(folded); m != nil {
				f.set(&l, strings.TrimSpace(m[1]))
				break
			}
		}
	}

	for _, pt := range propertyTypes {
		if containsAny(folded, pt.terms) {
			l.PropertyType = pt.label
			break
		}
	}

	switch {
	case containsAny(folded, []string{"賃料", "家賃"}):
		l.TransactionType = "賃貸"
	case containsAny(folded, []string{"価格", "売買"}):
		l.TransactionType = "売買"
	}

	for _, kw := range FeatureKeywords {
		if strings.Contains(folded, width.Fold.String(kw)) {
			l.Features = append(l.Features, kw)
		}
	}
	return l
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
