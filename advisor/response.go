package advisor

import (
	"encoding/json"
	"strings"

	"github.com/tsawler/mysouku/model"
)

// reply is the JSON object the model is asked to produce.
type reply struct {
	HeightMM   *float64 `json:"height_mm"`
	Confidence *float64 `json:"confidence"`
	Evidence   []string `json:"evidence"`
}

// ParseResponse turns a model reply into a candidate. The reply may wrap the
// JSON object in prose or a code fence. Anything without a usable height and
// confidence yields the malformed default of 30mm at confidence 30.
func ParseResponse(raw string) model.FooterCandidate {
	malformed := model.FooterCandidate{
		HeightMM:   MalformedHeightMM,
		Confidence: MalformedConfidence,
		Source:     model.SourceHeuristic,
		Evidence:   []string{"malformed advisor reply"},
	}

	obj := extractObject(raw)
	if obj == "" {
		return malformed
	}

	var r reply
	if err := json.Unmarshal([]byte(obj), &r); err != nil {
		return malformed
	}
	if r.HeightMM == nil || r.Confidence == nil || *r.HeightMM <= 0 {
		return malformed
	}

	return model.FooterCandidate{
		HeightMM:   model.ClampHeightMM(*r.HeightMM),
		Confidence: model.ClampConfidence(int(*r.Confidence + 0.5)),
		Source:     model.SourceHeuristic,
		Evidence:   r.Evidence,
	}
}

// extractObject returns the outermost {...} span of s, or "".
func extractObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
