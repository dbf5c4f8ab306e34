package footer

// DefaultKeywords are terms that mark a broker's identity block on a flyer.
var DefaultKeywords = []string{
	// company entity suffixes
	"株式会社",
	"有限会社",
	// license and licensing authority
	"宅建",
	"免許",
	"知事",
	"大臣",
	// contact labels
	"TEL",
	"FAX",
	// transaction roles
	"仲介",
	"媒介",
	"代理",
	"売主",
	"AD",
}

// Keywords returns a copy of DefaultKeywords.
func Keywords() []string {
	out := make([]string, len(DefaultKeywords))
	copy(out, DefaultKeywords)
	return out
}
