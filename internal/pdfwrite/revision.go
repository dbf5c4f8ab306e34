package pdfwrite

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/tsawler/mysouku/internal/filters"
)

// ErrNoXRef is returned when the previous cross-reference section cannot be
// located, so no revision can be chained to it.
var ErrNoXRef = errors.New("previous cross-reference section not found")

// Trailer is the subset of the document trailer an incremental update
// must carry forward.
type Trailer struct {
	Size int
	Root *types.IndirectRef
	Info *types.IndirectRef
	ID   types.Array
}

// Object is a serialised indirect object body.
type Object struct {
	Nr   int
	Gen  int
	Body []byte
}

// Revision accumulates objects for one incremental update.
type Revision struct {
	base       []byte
	prevXRef   int
	xrefStream bool
	trailer    Trailer
	next       int
	objs       []Object
}

// NewRevision starts a revision on top of base, whose trailer is tr. New
// object numbers start at tr.Size.
func NewRevision(base []byte, tr Trailer) (*Revision, error) {
	prev, err := FindStartXRef(base)
	if err != nil {
		return nil, err
	}
	if prev < 0 || prev >= len(base) {
		return nil, fmt.Errorf("%w: startxref %d outside file", ErrNoXRef, prev)
	}
	section := bytes.TrimLeft(base[prev:], " \t\r\n\f\x00")

	next := tr.Size
	if next < 1 {
		next = 1
	}
	return &Revision{
		base:       base,
		prevXRef:   prev,
		xrefStream: !bytes.HasPrefix(section, []byte("xref")),
		trailer:    tr,
		next:       next,
	}, nil
}

// FindStartXRef returns the offset recorded after the last startxref keyword.
func FindStartXRef(data []byte) (int, error) {
	i := bytes.LastIndex(data, []byte("startxref"))
	if i < 0 {
		return 0, ErrNoXRef
	}
	rest := bytes.TrimLeft(data[i+len("startxref"):], " \t\r\n\f")
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, fmt.Errorf("%w: no offset after startxref", ErrNoXRef)
	}
	n, err := strconv.Atoi(string(rest[:end]))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoXRef, err)
	}
	return n, nil
}

// XRefStream reports whether the revision ends in a cross-reference stream.
func (r *Revision) XRefStream() bool {
	return r.xrefStream
}

// Alloc reserves n consecutive object numbers and returns the first.
func (r *Revision) Alloc(n int) int {
	first := r.next
	r.next += n
	return first
}

// Add queues objects for the revision.
func (r *Revision) Add(objs ...Object) {
	r.objs = append(r.objs, objs...)
}

// Bytes returns the original file followed by the new objects, a
// cross-reference section of the same kind as the previous one, and the
// trailer.
func (r *Revision) Bytes() ([]byte, error) {
	if len(r.objs) == 0 {
		return r.base, nil
	}

	var out bytes.Buffer
	out.Grow(len(r.base) + 4096)
	out.Write(r.base)
	if !bytes.HasSuffix(r.base, []byte("\n")) {
		out.WriteByte('\n')
	}

	objs := append([]Object(nil), r.objs...)
	sort.Slice(objs, func(i, j int) bool { return objs[i].Nr < objs[j].Nr })

	offsets := make(map[int]int, len(objs)+1)
	gens := make(map[int]int, len(objs)+1)
	for _, o := range objs {
		offsets[o.Nr] = out.Len()
		gens[o.Nr] = o.Gen
		fmt.Fprintf(&out, "%d %d obj\n", o.Nr, o.Gen)
		out.Write(o.Body)
		out.WriteString("\nendobj\n")
	}

	trailer, err := r.trailerEntries()
	if err != nil {
		return nil, err
	}

	if r.xrefStream {
		if err := r.writeXRefStream(&out, offsets, gens, trailer); err != nil {
			return nil, err
		}
	} else {
		r.writeXRefTable(&out, offsets, gens, trailer)
	}
	return out.Bytes(), nil
}

func (r *Revision) trailerEntries() (string, error) {
	var buf bytes.Buffer
	if r.trailer.Root == nil {
		return "", fmt.Errorf("trailer has no /Root")
	}
	buf.WriteString(" /Root ")
	if err := WriteObject(&buf, *r.trailer.Root); err != nil {
		return "", err
	}
	if r.trailer.Info != nil {
		buf.WriteString(" /Info ")
		if err := WriteObject(&buf, *r.trailer.Info); err != nil {
			return "", err
		}
	}
	if len(r.trailer.ID) > 0 {
		buf.WriteString(" /ID ")
		if err := WriteObject(&buf, r.trailer.ID); err != nil {
			return "", err
		}
	}
	fmt.Fprintf(&buf, " /Prev %d", r.prevXRef)
	return buf.String(), nil
}

// subsections groups sorted object numbers into runs of consecutive numbers.
func subsections(nrs []int) [][]int {
	var runs [][]int
	for _, nr := range nrs {
		if n := len(runs); n > 0 && runs[n-1][len(runs[n-1])-1] == nr-1 {
			runs[n-1] = append(runs[n-1], nr)
			continue
		}
		runs = append(runs, []int{nr})
	}
	return runs
}

func sortedKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func (r *Revision) writeXRefTable(out *bytes.Buffer, offsets, gens map[int]int, trailer string) {
	start := out.Len()
	out.WriteString("xref\n")
	for _, run := range subsections(sortedKeys(offsets)) {
		fmt.Fprintf(out, "%d %d\n", run[0], len(run))
		for _, nr := range run {
			fmt.Fprintf(out, "%010d %05d n \n", offsets[nr], gens[nr])
		}
	}
	fmt.Fprintf(out, "trailer\n<< /Size %d%s >>\nstartxref\n%d\n%%%%EOF\n", r.next, trailer, start)
}

func (r *Revision) writeXRefStream(out *bytes.Buffer, offsets, gens map[int]int, trailer string) error {
	xrefNr := r.Alloc(1)
	start := out.Len()
	offsets[xrefNr] = start
	gens[xrefNr] = 0

	var rows bytes.Buffer
	var index bytes.Buffer
	for i, run := range subsections(sortedKeys(offsets)) {
		if i > 0 {
			index.WriteByte(' ')
		}
		fmt.Fprintf(&index, "%d %d", run[0], len(run))
		for _, nr := range run {
			off := offsets[nr]
			gen := gens[nr]
			rows.Write([]byte{1, byte(off >> 24), byte(off >> 16), byte(off >> 8), byte(off), byte(gen >> 8), byte(gen)})
		}
	}

	data, err := filters.FlateEncode(rows.Bytes())
	if err != nil {
		return fmt.Errorf("xref stream: %w", err)
	}

	fmt.Fprintf(out, "%d 0 obj\n<< /Type /XRef /Size %d /W [1 4 2] /Index [%s] /Filter /FlateDecode /Length %d%s >>\nstream\n",
		xrefNr, r.next, index.String(), len(data), trailer)
	out.Write(data)
	fmt.Fprintf(out, "\nendstream\nendobj\nstartxref\n%d\n%%%%EOF\n", start)
	return nil
}
