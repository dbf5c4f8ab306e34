// Package pdftest builds small, deterministic PDF files for tests.
//
// ASCII strings are shown in Helvetica with WinAnsi encoding. Any other
// string is shown in a Type0 Identity-H font whose codes are the UTF-16
// code units of the text, with a ToUnicode map so text extractors can
// recover it.
package pdftest

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"unicode/utf16"
)

// Text is a string shown at a baseline position.
type Text struct {
	X, Y float64
	Size float64
	S    string
}

// Page describes one page.
type Page struct {
	Width, Height float64
	// OriginX and OriginY offset the MediaBox lower-left corner.
	OriginX, OriginY float64
	Texts            []Text
	// Extra is appended verbatim to the page content stream.
	Extra string
	// Contents replaces the page's /Contents value verbatim, e.g. "42" for
	// a malformed page. The content stream object is still written.
	Contents string
}

// Options controls file-level structure.
type Options struct {
	// XRefStream writes a cross-reference stream instead of a table.
	XRefStream bool
	// Info adds a document information dictionary.
	Info bool
	// Encrypt adds a dangling /Encrypt reference to the trailer.
	Encrypt bool
	// Version is the header version, "1.4" by default ("1.5" with XRefStream).
	Version string
}

// A4 returns an A4 portrait page with the given texts.
func A4(texts ...Text) Page {
	return Page{Width: 595, Height: 842, Texts: texts}
}

// Build writes a PDF with a classic cross-reference table.
func Build(pages ...Page) []byte {
	return BuildWith(Options{}, pages...)
}

// BuildWith writes a PDF with the given options.
func BuildWith(opts Options, pages ...Page) []byte {
	b := &builder{}

	version := opts.Version
	if version == "" {
		version = "1.4"
		if opts.XRefStream {
			version = "1.5"
		}
	}
	b.buf.WriteString("%PDF-" + version + "\n%\xe2\xe3\xcf\xd3\n")

	const (
		catalogObj = 1
		pagesObj   = 2
		helvObj    = 3
		type0Obj   = 4
		cidObj     = 5
		cmapObj    = 6
		firstPage  = 7
	)

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", firstPage+2*i)
	}

	b.obj(catalogObj, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(pagesObj, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))

	widths := strings.TrimSpace(strings.Repeat("500 ", 95))
	b.obj(helvObj, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths ["+widths+"] >>")
	b.obj(type0Obj, fmt.Sprintf("<< /Type /Font /Subtype /Type0 /BaseFont /TestCJK /Encoding /Identity-H /DescendantFonts [%d 0 R] /ToUnicode %d 0 R >>", cidObj, cmapObj))
	b.obj(cidObj, "<< /Type /Font /Subtype /CIDFontType2 /BaseFont /TestCJK /CIDSystemInfo << /Registry (Adobe) /Ordering (Identity) /Supplement 0 >> /DW 1000 >>")
	b.stream(cmapObj, "", toUnicode(pages))

	for i, p := range pages {
		pageNr := firstPage + 2*i
		contentNr := pageNr + 1
		contents := fmt.Sprintf("%d 0 R", contentNr)
		if p.Contents != "" {
			contents = p.Contents
		}
		b.obj(pageNr, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [%s %s %s %s] /Resources << /Font << /F1 3 0 R /F2 4 0 R >> >> /Contents %s >>",
			num(p.OriginX), num(p.OriginY), num(p.OriginX+p.Width), num(p.OriginY+p.Height), contents))
		b.stream(contentNr, "", content(p))
	}

	size := firstPage + 2*len(pages)
	infoRef := ""
	if opts.Info {
		b.obj(size, "<< /Producer (pdftest) /Title (flyer) >>")
		infoRef = fmt.Sprintf(" /Info %d 0 R", size)
		size++
	}
	encrypt := ""
	if opts.Encrypt {
		encrypt = " /Encrypt 999 0 R"
	}
	id := " /ID [<00112233445566778899aabbccddeeff> <00112233445566778899aabbccddeeff>]"

	if opts.XRefStream {
		b.xrefStream(size, " /Root 1 0 R"+infoRef+encrypt+id)
	} else {
		b.xrefTable(size, " /Root 1 0 R"+infoRef+encrypt+id)
	}
	return b.buf.Bytes()
}

type builder struct {
	buf     bytes.Buffer
	offsets map[int]int
}

func (b *builder) obj(nr int, body string) {
	if b.offsets == nil {
		b.offsets = make(map[int]int)
	}
	b.offsets[nr] = b.buf.Len()
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", nr, body)
}

func (b *builder) stream(nr int, dict, data string) {
	if b.offsets == nil {
		b.offsets = make(map[int]int)
	}
	b.offsets[nr] = b.buf.Len()
	fmt.Fprintf(&b.buf, "%d 0 obj\n<< /Length %d%s >>\nstream\n%s\nendstream\nendobj\n", nr, len(data), dict, data)
}

func (b *builder) xrefTable(size int, trailer string) {
	start := b.buf.Len()
	fmt.Fprintf(&b.buf, "xref\n0 %d\n0000000000 65535 f \n", size)
	for nr := 1; nr < size; nr++ {
		fmt.Fprintf(&b.buf, "%010d 00000 n \n", b.offsets[nr])
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d%s >>\nstartxref\n%d\n%%%%EOF\n", size, trailer, start)
}

func (b *builder) xrefStream(size int, trailer string) {
	xrefNr := size
	size++
	start := b.buf.Len()
	b.offsets[xrefNr] = start

	var rows bytes.Buffer
	rows.Write([]byte{0, 0, 0, 0, 0, 0xff, 0xff})
	for nr := 1; nr < size; nr++ {
		off := b.offsets[nr]
		rows.Write([]byte{1, byte(off >> 24), byte(off >> 16), byte(off >> 8), byte(off), 0, 0})
	}

	fmt.Fprintf(&b.buf, "%d 0 obj\n<< /Type /XRef /Size %d /W [1 4 2] /Index [0 %d] /Length %d%s >>\nstream\n",
		xrefNr, size, size, rows.Len(), trailer)
	b.buf.Write(rows.Bytes())
	fmt.Fprintf(&b.buf, "\nendstream\nendobj\nstartxref\n%d\n%%%%EOF\n", start)
}

func content(p Page) string {
	var sb strings.Builder
	for _, t := range p.Texts {
		size := t.Size
		if size == 0 {
			size = 10
		}
		font, operand := "F1", "("+escape(t.S)+")"
		if !isASCII(t.S) {
			font, operand = "F2", "<"+hexUTF16(t.S)+">"
		}
		fmt.Fprintf(&sb, "BT /%s %s Tf 1 0 0 1 %s %s Tm %s Tj ET\n",
			font, num(size), num(p.OriginX+t.X), num(p.OriginY+t.Y), operand)
	}
	sb.WriteString(p.Extra)
	return sb.String()
}

func toUnicode(pages []Page) string {
	seen := map[uint16]bool{}
	for _, p := range pages {
		for _, t := range p.Texts {
			if isASCII(t.S) {
				continue
			}
			for _, u := range utf16.Encode([]rune(t.S)) {
				seen[u] = true
			}
		}
	}
	codes := make([]int, 0, len(seen))
	for u := range seen {
		codes = append(codes, int(u))
	}
	sort.Ints(codes)

	var sb strings.Builder
	sb.WriteString("/CIDInit /ProcSet findresource begin\n12 dict begin\nbegincmap\n")
	sb.WriteString("/CMapName /TestUCS def\n/CMapType 2 def\n")
	sb.WriteString("1 begincodespacerange\n<0000> <FFFF>\nendcodespacerange\n")
	for start := 0; start < len(codes); start += 100 {
		end := start + 100
		if end > len(codes) {
			end = len(codes)
		}
		fmt.Fprintf(&sb, "%d beginbfchar\n", end-start)
		for _, c := range codes[start:end] {
			fmt.Fprintf(&sb, "<%04X> <%04X>\n", c, c)
		}
		sb.WriteString("endbfchar\n")
	}
	sb.WriteString("endcmap\nCMapName currentdict /CMap defineresource pop\nend\nend")
	return sb.String()
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func hexUTF16(s string) string {
	var sb strings.Builder
	for _, u := range utf16.Encode([]rune(s)) {
		fmt.Fprintf(&sb, "%04X", u)
	}
	return sb.String()
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

func num(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
