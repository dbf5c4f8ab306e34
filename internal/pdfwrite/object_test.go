package pdfwrite

import (
	"bytes"
	"compress/zlib"
	"io"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

func TestWriteObject(t *testing.T) {
	tests := []struct {
		name string
		obj  types.Object
		want string
	}{
		{"null", nil, "null"},
		{"integer", types.Integer(42), "42"},
		{"float", types.Float(0.5), "0.5"},
		{"whole float", types.Float(595.0), "595"},
		{"boolean", types.Boolean(true), "true"},
		{"name", types.Name("Helvetica"), "/Helvetica"},
		{"ref", Ref(12), "12 0 R"},
		{"array", types.Array{types.Integer(1), types.Name("A")}, "[1 /A]"},
		{"sorted dict", types.Dict{"Type": types.Name("Page"), "Contents": Ref(4)}, "<< /Contents 4 0 R /Type /Page >>"},
		{"nested", types.Dict{"Font": types.Dict{"F1": Ref(3)}}, "<< /Font << /F1 3 0 R >> >>"},
		{"string", types.StringLiteral("a\\(b\\)"), "(a\\(b\\))"},
		{"hex", types.HexLiteral("3042"), "<3042>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteObject(&buf, tt.obj); err != nil {
				t.Fatalf("WriteObject: %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteObject_RejectsStream(t *testing.T) {
	var buf bytes.Buffer
	err := WriteObject(&buf, types.Dict{"Bad": types.StreamDict{}})
	if err == nil {
		t.Fatal("expected an error for an inline stream")
	}
}

func TestWriteName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"F1", "/F1"},
		{"A B", "/A#20B"},
		{"Paren(", "/Paren#28"},
		{"Already#20Escaped", "/Already#20Escaped"},
		{"Lone#", "/Lone#23"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		WriteName(&buf, tt.in)
		if got := buf.String(); got != tt.want {
			t.Errorf("WriteName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1, "1"},
		{-0.00001, "0"},
		{85.03937007874, "85.0394"},
		{2.5, "2.5"},
		{-12.25, "-12.25"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStreamObject(t *testing.T) {
	body, err := StreamObject(" /Length1 3", []byte("abc"))
	if err != nil {
		t.Fatalf("StreamObject: %v", err)
	}
	if !bytes.HasPrefix(body, []byte("<< /Length ")) || !bytes.Contains(body, []byte("/Filter /FlateDecode /Length1 3 >>\nstream\n")) {
		t.Errorf("unexpected stream header: %q", body)
	}
	if !bytes.HasSuffix(body, []byte("\nendstream")) {
		t.Errorf("stream not terminated: %q", body)
	}

	start := bytes.Index(body, []byte("stream\n")) + len("stream\n")
	zr, err := zlib.NewReader(bytes.NewReader(body[start : len(body)-len("\nendstream")]))
	if err != nil {
		t.Fatalf("zlib: %v", err)
	}
	got, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("inflate: %v", err)
	}
	if string(got) != "abc" {
		t.Errorf("inflated %q, want %q", got, "abc")
	}
}
