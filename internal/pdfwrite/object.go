// Package pdfwrite serialises PDF objects and appends incremental-update
// revisions to existing files.
package pdfwrite

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/tsawler/mysouku/internal/filters"
)

// WriteObject serialises a direct object. Dictionary keys are written in
// sorted order so output is stable.
func WriteObject(buf *bytes.Buffer, o types.Object) error {
	switch v := o.(type) {
	case nil:
		buf.WriteString("null")
	case types.Dict:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteString("<<")
		for _, k := range keys {
			buf.WriteByte(' ')
			WriteName(buf, k)
			buf.WriteByte(' ')
			if err := WriteObject(buf, v[k]); err != nil {
				return fmt.Errorf("/%s: %w", k, err)
			}
		}
		buf.WriteString(" >>")
	case types.Array:
		buf.WriteByte('[')
		for i, e := range v {
			if i > 0 {
				buf.WriteByte(' ')
			}
			if err := WriteObject(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case types.IndirectRef:
		fmt.Fprintf(buf, "%d %d R", v.ObjectNumber.Value(), v.GenerationNumber.Value())
	case *types.IndirectRef:
		if v == nil {
			buf.WriteString("null")
			return nil
		}
		return WriteObject(buf, *v)
	case types.Name:
		WriteName(buf, string(v))
	case types.Integer:
		buf.WriteString(strconv.Itoa(int(v)))
	case types.Float:
		buf.WriteString(FormatNumber(float64(v)))
	case types.Boolean:
		buf.WriteString(strconv.FormatBool(bool(v)))
	case types.StringLiteral, types.HexLiteral:
		buf.WriteString(v.PDFString())
	case types.StreamDict:
		return fmt.Errorf("direct stream cannot be written inline")
	default:
		return fmt.Errorf("unsupported object type %T", o)
	}
	return nil
}

// WriteName writes /name, escaping delimiters and non-regular bytes as #xx.
// A '#' already followed by two hex digits is kept as an existing escape.
func WriteName(buf *bytes.Buffer, name string) {
	buf.WriteByte('/')
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '#' && i+2 < len(name) && isHex(name[i+1]) && isHex(name[i+2]) {
			buf.WriteByte(c)
			continue
		}
		if c < '!' || c > '~' || bytes.IndexByte([]byte("#()<>[]{}/%"), c) >= 0 {
			fmt.Fprintf(buf, "#%02X", c)
			continue
		}
		buf.WriteByte(c)
	}
}

// Ref returns a generation-zero reference to object nr.
func Ref(nr int) types.IndirectRef {
	return types.IndirectRef{ObjectNumber: types.Integer(nr), GenerationNumber: types.Integer(0)}
}

// StreamObject builds a Flate-compressed stream object body. dict holds
// extra dictionary entries, each preceded by a space.
func StreamObject(dict string, data []byte) ([]byte, error) {
	enc, err := filters.FlateEncode(data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<< /Length %d /Filter /FlateDecode%s >>\nstream\n", len(enc), dict)
	buf.Write(enc)
	buf.WriteString("\nendstream")
	return buf.Bytes(), nil
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// FormatNumber renders f with at most 4 decimals and no trailing zeros.
func FormatNumber(f float64) string {
	s := strconv.FormatFloat(f, 'f', 4, 64)
	for len(s) > 1 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	if s == "-0" {
		return "0"
	}
	return s
}
