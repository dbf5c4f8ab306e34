package overlay

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func TestHelvetica_CoversAndEncode(t *testing.T) {
	h := NewHelvetica()

	if !h.Covers("ACME Realty é") {
		t.Error("expected Latin-1 text to be covered")
	}
	if h.Covers("テスト") {
		t.Error("Japanese must not be covered")
	}
	if got := h.Encode("AB"); got != "4142" {
		t.Errorf("Encode(AB) = %q, want 4142", got)
	}
	if got := h.Encode("Aテ"); got != "41" {
		t.Errorf("unencodable runes should be dropped, got %q", got)
	}
}

func TestHelvetica_Width(t *testing.T) {
	h := NewHelvetica()
	if got := h.Width("A", 10); math.Abs(got-6.67) > 1e-9 {
		t.Errorf("Width(A, 10) = %v, want 6.67", got)
	}
	if got := h.Width("", 10); got != 0 {
		t.Errorf("Width of empty string = %v", got)
	}
}

func TestHelvetica_Reduce(t *testing.T) {
	h := NewHelvetica()
	tests := []struct {
		in, want string
	}{
		{"株式会社テスト不動産", ""},
		{"ACME 不動産 Realty", "ACME Realty"},
		{"  Café\tHouse ", "Café House"},
	}
	for _, tt := range tests {
		if got := h.Reduce(tt.in); got != tt.want {
			t.Errorf("Reduce(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJapaneseCIDFont(t *testing.T) {
	f := NewJapaneseCIDFont()

	if !f.Covers("〒100-0001 東京都千代田区") {
		t.Error("expected BMP Japanese to be covered")
	}
	if f.Covers("𠮷") {
		t.Error("supplementary-plane characters must not be covered")
	}
	if got := f.Encode("テA"); got != "30C60041" {
		t.Errorf("Encode = %q, want 30C60041", got)
	}
	if got := f.Width("テA", 10); got != 15 {
		t.Errorf("Width = %v, want 15", got)
	}

	objs, err := f.objects(20)
	if err != nil {
		t.Fatalf("objects: %v", err)
	}
	if len(objs) != f.objectCount() {
		t.Fatalf("got %d objects, want %d", len(objs), f.objectCount())
	}
	if !bytes.Contains(objs[0].Body, []byte("/DescendantFonts [21 0 R]")) {
		t.Errorf("Type0 font does not reference its descendant: %s", objs[0].Body)
	}
}

func TestParseTrueType(t *testing.T) {
	f, err := ParseTrueType(goregular.TTF)
	if err != nil {
		t.Fatalf("ParseTrueType: %v", err)
	}
	if f.BaseName() == "" || strings.ContainsAny(f.BaseName(), " /") {
		t.Errorf("unexpected base name %q", f.BaseName())
	}
	if !f.Covers("Hello 123") {
		t.Error("Go Regular should cover ASCII")
	}
	if f.Covers("テスト") {
		t.Error("Go Regular does not have Japanese glyphs")
	}
	if w := f.Width("Hello", 10); w <= 0 || w > 50 {
		t.Errorf("Width = %v, want a positive width under one em per rune", w)
	}

	enc := f.Encode("Hi")
	if len(enc) != 8 {
		t.Errorf("Encode should produce two 2-byte codes, got %q", enc)
	}

	objs, err := f.objects(30)
	if err != nil {
		t.Fatalf("objects: %v", err)
	}
	if len(objs) != 5 {
		t.Fatalf("got %d objects, want 5", len(objs))
	}
	if !bytes.Contains(objs[2].Body, []byte("/FontFile2 33 0 R")) {
		t.Errorf("descriptor does not reference the font file: %s", objs[2].Body)
	}
	if !bytes.Contains(objs[3].Body, []byte("/Length1 ")) {
		t.Error("font file stream is missing /Length1")
	}
}

func TestParseTrueType_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"cff", []byte("OTTO\x00\x00\x00\x00")},
		{"collection", []byte("ttcf\x00\x02\x00\x00")},
		{"garbage magic", []byte{0, 1, 0, 0, 1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTrueType(tt.data)
			if !errors.Is(err, ErrUnsupportedFont) {
				t.Errorf("expected ErrUnsupportedFont, got %v", err)
			}
		})
	}
}

func TestFontSet_Select(t *testing.T) {
	tt, err := ParseTrueType(goregular.TTF)
	if err != nil {
		t.Fatalf("ParseTrueType: %v", err)
	}
	cjk := NewJapaneseCIDFont()
	set := NewFontSet(tt, cjk)

	if got := len(set.Fonts()); got != 3 {
		t.Fatalf("chain length = %d, want 3", got)
	}

	f, reduced := set.Select("ACME", "TEL 03")
	if f != Font(tt) || reduced {
		t.Errorf("Latin text should use the TrueType font, got %s reduced=%v", f.BaseName(), reduced)
	}

	f, reduced = set.Select("ACME", "株式会社テスト")
	if f != Font(cjk) || reduced {
		t.Errorf("Japanese text should use the CID font, got %s reduced=%v", f.BaseName(), reduced)
	}

	f, reduced = NewFontSet().Select("株式会社テスト")
	if f.BaseName() != "Helvetica" {
		t.Errorf("expected Helvetica fallback, got %s", f.BaseName())
	}
	if !reduced {
		t.Error("expected reduced fallback")
	}
}

func TestToUnicodeCMap(t *testing.T) {
	cmap := string(toUnicodeCMap("X-UTF16", map[uint16]rune{0x0042: 'B', 0x0041: 'A', 0x0100: '𠮷'}))
	if !strings.Contains(cmap, "3 beginbfchar") {
		t.Errorf("missing bfchar header:\n%s", cmap)
	}
	if strings.Index(cmap, "<0041> <0041>") > strings.Index(cmap, "<0042> <0042>") {
		t.Error("codes must be sorted")
	}
	if !strings.Contains(cmap, "<0100> <D842DFB7>") {
		t.Error("supplementary rune must be written as a surrogate pair")
	}
}
