package reader

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/tsawler/mysouku/internal/pdftest"
	"github.com/tsawler/mysouku/internal/pdfwrite"
)

func TestOpen_RejectsNonPDF(t *testing.T) {
	_, err := Open([]byte("hello world"), DefaultOptions())
	if !errors.Is(err, ErrUnparseable) {
		t.Errorf("expected ErrUnparseable, got %v", err)
	}
}

func TestOpen_RejectsTruncated(t *testing.T) {
	data := pdftest.Build(pdftest.A4())
	_, err := Open(data[:40], DefaultOptions())
	if !errors.Is(err, ErrUnparseable) {
		t.Errorf("expected ErrUnparseable, got %v", err)
	}
}

func TestOpen_SizeLimit(t *testing.T) {
	data := pdftest.Build(pdftest.A4())
	opts := DefaultOptions()
	opts.MaxBytes = 10
	if _, err := Open(data, opts); !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

func TestOpen_Encrypted(t *testing.T) {
	data := pdftest.BuildWith(pdftest.Options{Encrypt: true}, pdftest.A4())
	if _, err := Open(data, DefaultOptions()); !errors.Is(err, ErrEncrypted) {
		t.Errorf("expected ErrEncrypted, got %v", err)
	}
}

func TestOpen_PageCount(t *testing.T) {
	data := pdftest.Build(pdftest.A4(), pdftest.A4(), pdftest.A4())
	doc, err := Open(data, DefaultOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if doc.NumPages() != 3 {
		t.Errorf("NumPages = %d, want 3", doc.NumPages())
	}
	if string(doc.Bytes()) != string(data) {
		t.Error("Bytes must return the original input")
	}
}

func TestPage_WordsAndText(t *testing.T) {
	data := pdftest.Build(pdftest.A4(
		pdftest.Text{X: 50, Y: 700, Size: 20, S: "PRICE 3980"},
		pdftest.Text{X: 40, Y: 40, Size: 10, S: "TEL 03-1234-5678"},
	))
	doc, err := Open(data, DefaultOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	page, err := doc.Page(0)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if page.Err != nil {
		t.Fatalf("extraction error: %v", page.Err)
	}
	if page.Box.Width != 595 || page.Box.Height != 842 {
		t.Errorf("box = %+v", page.Box)
	}

	var tel bool
	for _, w := range page.Words {
		if w.Text == "TEL" {
			tel = true
			if w.Box.Bottom() < 39 || w.Box.Bottom() > 41 {
				t.Errorf("TEL baseline = %v, want ~40", w.Box.Bottom())
			}
		}
	}
	if !tel {
		t.Errorf("TEL not found in words %+v", page.Words)
	}
	if !strings.Contains(page.Text, "TEL") || !strings.Contains(page.Text, "PRICE") {
		t.Errorf("plain text missing content: %q", page.Text)
	}

	if m := page.KeywordIndex().WordsContaining([]string{"TEL"}); len(m) != 1 {
		t.Errorf("index matches = %d, want 1", len(m))
	}
}

func TestPage_JapaneseText(t *testing.T) {
	data := pdftest.Build(pdftest.A4(
		pdftest.Text{X: 40, Y: 60, Size: 12, S: "株式会社テスト不動産"},
	))
	doc, err := Open(data, DefaultOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	page, err := doc.Page(0)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}

	m := page.KeywordIndex().WordsContaining([]string{"株式会社"})
	if len(m) != 1 {
		t.Fatalf("expected 1 match, got %d in %+v", len(m), page.Words)
	}
	if b := m[0].Word.Box.Bottom(); b < 59 || b > 61 {
		t.Errorf("baseline = %v, want ~60", b)
	}
}

func TestPage_OffsetMediaBox(t *testing.T) {
	p := pdftest.A4(pdftest.Text{X: 40, Y: 30, S: "FAX"})
	p.OriginX, p.OriginY = 100, 200
	doc, err := Open(pdftest.Build(p), DefaultOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	page, err := doc.Page(0)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if page.Box.Origin.X != 100 || page.Box.Origin.Y != 200 {
		t.Errorf("origin = %+v", page.Box.Origin)
	}
	m := page.KeywordIndex().WordsContaining([]string{"FAX"})
	if len(m) != 1 {
		t.Fatalf("FAX not found")
	}
	if b := m[0].Word.Box.Bottom(); b < 29 || b > 31 {
		t.Errorf("word not box-relative: bottom = %v", b)
	}
}

func TestPage_OutOfRange(t *testing.T) {
	doc, err := Open(pdftest.Build(pdftest.A4()), DefaultOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := doc.Page(1); err == nil {
		t.Error("expected error for page 1 of 1")
	}
	if _, err := doc.Page(-1); err == nil {
		t.Error("expected error for page -1")
	}
}

func TestPage_EmptyPageHasNoWords(t *testing.T) {
	doc, err := Open(pdftest.Build(pdftest.A4()), DefaultOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	page, err := doc.Page(0)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if len(page.Words) != 0 || page.KeywordIndex().Len() != 0 {
		t.Errorf("expected no words, got %+v", page.Words)
	}
}

func TestPageObject(t *testing.T) {
	doc, err := Open(pdftest.Build(pdftest.A4(), pdftest.A4()), DefaultOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	obj, err := doc.PageObject(1)
	if err != nil {
		t.Fatalf("PageObject: %v", err)
	}
	if obj.Ref.ObjectNumber.Value() != 9 {
		t.Errorf("page 1 object number = %d, want 9", obj.Ref.ObjectNumber.Value())
	}
	if len(obj.Contents) != 1 {
		t.Errorf("contents = %v", obj.Contents)
	}
	if _, ok := obj.Resources["Font"]; !ok {
		t.Error("resources missing Font")
	}

	// Mutating the copy must not leak into the document.
	obj.Dict["Marker"] = obj.Ref
	again, _ := doc.PageObject(1)
	if _, ok := again.Dict["Marker"]; ok {
		t.Error("PageObject returned shared dictionary")
	}
}

func TestTrailer(t *testing.T) {
	doc, err := Open(pdftest.BuildWith(pdftest.Options{Info: true}, pdftest.A4()), DefaultOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	tr := doc.Trailer()
	if tr.Size != 10 {
		t.Errorf("Size = %d, want 10", tr.Size)
	}
	if tr.Root == nil || tr.Root.ObjectNumber.Value() != 1 {
		t.Errorf("Root = %v", tr.Root)
	}
	if tr.Info == nil || tr.Info.ObjectNumber.Value() != 9 {
		t.Errorf("Info = %v", tr.Info)
	}
	if len(tr.ID) != 2 {
		t.Errorf("ID = %v", tr.ID)
	}
}

func TestOpen_XRefStream(t *testing.T) {
	data := pdftest.BuildWith(pdftest.Options{XRefStream: true},
		pdftest.A4(pdftest.Text{X: 40, Y: 40, S: "TEL"}))
	doc, err := Open(data, DefaultOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	page, err := doc.Page(0)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if page.KeywordIndex().Len() == 0 {
		t.Error("expected words from xref-stream document")
	}
}

func TestPage_ContentsArray(t *testing.T) {
	for _, xrefStream := range []bool{false, true} {
		p := pdftest.A4(
			pdftest.Text{X: 50, Y: 700, Size: 20, S: "PRICE 3980"},
			pdftest.Text{X: 40, Y: 40, Size: 10, S: "TEL 03-1234-5678"},
		)
		p.Contents = "[8 0 R]"
		data := pdftest.BuildWith(pdftest.Options{XRefStream: xrefStream}, p)

		doc, err := Open(data, DefaultOptions())
		if err != nil {
			t.Fatalf("xref stream %v: Open: %v", xrefStream, err)
		}
		if !bytes.Equal(doc.Bytes(), data) {
			t.Errorf("xref stream %v: Bytes must return the original input", xrefStream)
		}
		page, err := doc.Page(0)
		if err != nil {
			t.Fatalf("xref stream %v: Page: %v", xrefStream, err)
		}
		if page.Err != nil {
			t.Errorf("xref stream %v: extraction error: %v", xrefStream, page.Err)
		}
		if m := page.KeywordIndex().WordsContaining([]string{"TEL"}); len(m) != 1 {
			t.Errorf("xref stream %v: TEL matches = %d in %+v", xrefStream, len(m), page.Words)
		}
		if !strings.Contains(page.Text, "PRICE") {
			t.Errorf("xref stream %v: plain text missing content: %q", xrefStream, page.Text)
		}
	}
}

func TestPage_ContentsArrayMultipleStreams(t *testing.T) {
	first := pdftest.A4(pdftest.Text{X: 40, Y: 700, S: "TOP"})
	second := pdftest.A4(pdftest.Text{X: 40, Y: 40, S: "TEL 03-1234-5678"})
	first.Contents = "[8 0 R 10 0 R]"
	doc, err := Open(pdftest.Build(first, second), DefaultOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	page, err := doc.Page(0)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if !strings.Contains(page.Text, "TOP") || !strings.Contains(page.Text, "TEL") {
		t.Errorf("page 0 should show both streams, got %q", page.Text)
	}

	obj, err := doc.PageObject(0)
	if err != nil {
		t.Fatalf("PageObject: %v", err)
	}
	if len(obj.Contents) != 2 {
		t.Errorf("contents = %v, want the original two streams", obj.Contents)
	}
}

func TestPageObject_DictionaryUnchanged(t *testing.T) {
	doc, err := Open(pdftest.Build(pdftest.A4()), DefaultOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	obj, err := doc.PageObject(0)
	if err != nil {
		t.Fatalf("PageObject: %v", err)
	}

	var buf bytes.Buffer
	if err := pdfwrite.WriteObject(&buf, obj.Dict); err != nil {
		t.Fatalf("WriteObject: %v", err)
	}
	want := "<< /Contents 8 0 R /MediaBox [0 0 595 842] /Parent 2 0 R /Resources << /Font << /F1 3 0 R /F2 4 0 R >> >> /Type /Page >>"
	if got := buf.String(); got != want {
		t.Errorf("page dictionary rewritten on open:\n got %s\nwant %s", got, want)
	}

	fonts, _ := obj.Resources["Font"].(types.Dict)
	if ref, ok := fonts["F2"].(types.IndirectRef); !ok || ref.ObjectNumber.Value() != 4 {
		t.Errorf("F2 = %v, want 4 0 R", fonts["F2"])
	}
}

func TestPageObject_MalformedContents(t *testing.T) {
	p := pdftest.A4(pdftest.Text{X: 40, Y: 40, S: "TEL"})
	p.Contents = "42"
	doc, err := Open(pdftest.Build(p), DefaultOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := doc.PageObject(0); err == nil {
		t.Error("expected an error for a non-stream /Contents")
	}
}
