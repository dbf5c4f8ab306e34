package reader

import (
	"bytes"
	"fmt"

	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/tsawler/mysouku/internal/pdfwrite"
)

// textView returns the bytes the text extractor reads. The content
// interpreter only follows a page's /Contents when it names a single
// stream, so every page whose /Contents is an array gets a revision that
// points it at one stream holding the concatenated content. Files without
// such pages are returned unchanged. The result is never written out.
func textView(data []byte, ctx *pdfmodel.Context) ([]byte, error) {
	var rev *pdfwrite.Revision

	for nr := 1; nr <= ctx.PageCount; nr++ {
		pageDict, ref, _, err := ctx.PageDict(nr, false)
		if err != nil || pageDict == nil || ref == nil {
			continue
		}
		o, err := ctx.Dereference(pageDict["Contents"])
		if err != nil {
			continue
		}
		arr, ok := o.(types.Array)
		if !ok {
			continue
		}

		content, err := joinContent(ctx, arr)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", nr-1, err)
		}

		if rev == nil {
			rev, err = pdfwrite.NewRevision(data, trailerOf(ctx))
			if err != nil {
				return nil, err
			}
		}

		streamNr := rev.Alloc(1)
		body, err := pdfwrite.StreamObject("", content)
		if err != nil {
			return nil, err
		}
		rev.Add(pdfwrite.Object{Nr: streamNr, Body: body})

		dict := pageDict.Clone().(types.Dict)
		dict["Contents"] = pdfwrite.Ref(streamNr)
		var buf bytes.Buffer
		if err := pdfwrite.WriteObject(&buf, dict); err != nil {
			return nil, fmt.Errorf("page %d: %w", nr-1, err)
		}
		rev.Add(pdfwrite.Object{
			Nr:   ref.ObjectNumber.Value(),
			Gen:  ref.GenerationNumber.Value(),
			Body: buf.Bytes(),
		})
	}

	if rev == nil {
		return data, nil
	}
	return rev.Bytes()
}

// joinContent decodes the streams of a Contents array and joins them with
// newlines so tokens at stream boundaries stay separate.
func joinContent(ctx *pdfmodel.Context, arr types.Array) ([]byte, error) {
	var out []byte
	for _, o := range arr {
		if o == nil {
			continue
		}
		sd, _, err := ctx.DereferenceStreamDict(o)
		if err != nil {
			return nil, err
		}
		if sd == nil {
			continue
		}
		if err := sd.Decode(); err != nil {
			return nil, err
		}
		out = append(out, sd.Content...)
		out = append(out, '\n')
	}
	return out, nil
}
