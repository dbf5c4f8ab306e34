package pdfwrite

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/tsawler/mysouku/internal/pdftest"
)

func testID() types.Array {
	id := types.HexLiteral("00112233445566778899aabbccddeeff")
	return types.Array{id, id}
}

func TestFindStartXRef(t *testing.T) {
	data := pdftest.Build(pdftest.A4())
	off, err := FindStartXRef(data)
	if err != nil {
		t.Fatalf("FindStartXRef: %v", err)
	}
	if !bytes.HasPrefix(data[off:], []byte("xref")) {
		t.Errorf("offset %d does not point at the xref table", off)
	}

	if _, err := FindStartXRef([]byte("%PDF-1.4\n")); !errors.Is(err, ErrNoXRef) {
		t.Errorf("expected ErrNoXRef, got %v", err)
	}
	if _, err := FindStartXRef([]byte("startxref\n%%EOF")); !errors.Is(err, ErrNoXRef) {
		t.Errorf("expected ErrNoXRef for missing offset, got %v", err)
	}
}

func TestNewRevision_OffsetOutsideFile(t *testing.T) {
	_, err := NewRevision([]byte("%PDF-1.4\nstartxref\n9999\n%%EOF\n"), Trailer{Size: 1})
	if !errors.Is(err, ErrNoXRef) {
		t.Errorf("expected ErrNoXRef, got %v", err)
	}
}

func TestSubsections(t *testing.T) {
	got := subsections([]int{3, 4, 5, 9, 11, 12})
	want := [][]int{{3, 4, 5}, {9}, {11, 12}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("subsections = %v, want %v", got, want)
	}
	if got := subsections(nil); got != nil {
		t.Errorf("subsections(nil) = %v", got)
	}
}

func TestRevision_Table(t *testing.T) {
	data := pdftest.BuildWith(pdftest.Options{Info: true}, pdftest.A4())
	root, info := Ref(1), Ref(9)
	rev, err := NewRevision(data, Trailer{Size: 10, Root: &root, Info: &info, ID: testID()})
	if err != nil {
		t.Fatalf("NewRevision: %v", err)
	}
	if rev.XRefStream() {
		t.Fatal("table input detected as stream")
	}

	nr := rev.Alloc(1)
	if nr != 10 {
		t.Errorf("first new object = %d, want 10", nr)
	}
	rev.Add(Object{Nr: nr, Body: []byte("<< /Marker true >>")})
	rev.Add(Object{Nr: 7, Body: []byte("<< /Type /Page >>")})

	out, err := rev.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if !bytes.HasPrefix(out, data) {
		t.Fatal("original bytes must be a prefix")
	}
	tail := string(out[len(data):])
	for _, want := range []string{
		"7 0 obj\n<< /Type /Page >>\nendobj\n",
		"10 0 obj\n<< /Marker true >>\nendobj\n",
		"xref\n7 1\n",
		"10 1\n",
		"/Size 11 /Root 1 0 R /Info 9 0 R /ID [",
		fmt.Sprintf("/Prev %d >>", rev.prevXRef),
	} {
		if !bytes.Contains([]byte(tail), []byte(want)) {
			t.Errorf("revision missing %q:\n%s", want, tail)
		}
	}

	off, err := FindStartXRef(out)
	if err != nil {
		t.Fatalf("FindStartXRef: %v", err)
	}
	if off <= len(data) || !bytes.HasPrefix(out[off:], []byte("xref")) {
		t.Errorf("new startxref %d does not point at the new table", off)
	}
}

func TestRevision_Stream(t *testing.T) {
	data := pdftest.BuildWith(pdftest.Options{XRefStream: true}, pdftest.A4())
	root := Ref(1)
	rev, err := NewRevision(data, Trailer{Size: 10, Root: &root, ID: testID()})
	if err != nil {
		t.Fatalf("NewRevision: %v", err)
	}
	if !rev.XRefStream() {
		t.Fatal("stream input detected as table")
	}

	rev.Add(Object{Nr: 7, Body: []byte("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Contents 8 0 R >>")})
	out, err := rev.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	tail := out[len(data):]
	if !bytes.Contains(tail, []byte("10 0 obj\n<< /Type /XRef /Size 11 ")) || !bytes.Contains(tail, []byte("/W [1 4 2]")) {
		t.Errorf("expected a cross-reference stream:\n%q", tail)
	}
	if !bytes.Contains(tail, []byte("/Prev ")) {
		t.Error("revision must chain to the previous section")
	}

	r, err := pdf.NewReader(bytes.NewReader(out), int64(len(out)))
	if err != nil {
		t.Fatalf("revision does not reopen: %v", err)
	}
	if n := r.NumPage(); n != 1 {
		t.Errorf("NumPage = %d, want 1", n)
	}
}

func TestRevision_MissingRoot(t *testing.T) {
	data := pdftest.Build(pdftest.A4())
	rev, err := NewRevision(data, Trailer{Size: 9})
	if err != nil {
		t.Fatalf("NewRevision: %v", err)
	}
	rev.Add(Object{Nr: 7, Body: []byte("<< >>")})
	if _, err := rev.Bytes(); err == nil {
		t.Error("expected an error for a trailer without /Root")
	}
}

func TestRevision_NothingAdded(t *testing.T) {
	data := pdftest.Build(pdftest.A4())
	root := Ref(1)
	rev, err := NewRevision(data, Trailer{Size: 9, Root: &root})
	if err != nil {
		t.Fatalf("NewRevision: %v", err)
	}
	out, err := rev.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Error("an empty revision must return the input unchanged")
	}
}
