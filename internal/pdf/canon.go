package pdf

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// canonicalize re-serializes a rendered document into a stable byte form.
// fpdf and gofpdi assemble imported-page resources from Go maps, so two
// renders of the same input can emit object numbers and dictionary entries
// in different orders. Re-writing with objects renumbered in catalog
// traversal order, dictionary keys sorted and the file ID derived from the
// content makes identical inputs produce identical bytes.
func canonicalize(data []byte) ([]byte, error) {
	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("parse rendered document: %w", err)
	}
	if ctx.Root == nil {
		return nil, fmt.Errorf("rendered document has no catalog")
	}

	c := &canonWriter{ctx: ctx, renum: make(map[int]int)}
	c.visit(*ctx.Root)

	var body bytes.Buffer
	body.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int, len(c.order))
	for i, oldNr := range c.order {
		offsets[i] = body.Len()
		fmt.Fprintf(&body, "%d 0 obj\n", i+1)
		if err := c.writeObject(&body, c.object(oldNr)); err != nil {
			return nil, err
		}
		body.WriteString("\nendobj\n")
	}

	xrefOffset := body.Len()
	fmt.Fprintf(&body, "xref\n0 %d\n", len(c.order)+1)
	body.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&body, "%010d 00000 n \n", off)
	}

	// The file ID hashes the canonical body, so it is unique per document
	// content yet identical across renders of the same input.
	sum := md5.Sum(body.Bytes())
	id := types.HexLiteral(hex.EncodeToString(sum[:]))
	trailer := types.Dict{
		"Size": types.Integer(len(c.order) + 1),
		"Root": *ctx.Root,
		"ID":   types.Array{id, id},
	}
	body.WriteString("trailer\n")
	body.WriteString(c.serialize(trailer))
	fmt.Fprintf(&body, "\nstartxref\n%d\n%%%%EOF\n", xrefOffset)

	return body.Bytes(), nil
}

// canonWriter renumbers objects in depth-first catalog order and serializes
// them with sorted dictionary keys. The document info object is dropped: it
// only carries writer metadata and timestamps.
type canonWriter struct {
	ctx   *pdfmodel.Context
	renum map[int]int // old object number -> canonical number
	order []int       // old object numbers in canonical order
}

func (c *canonWriter) object(nr int) types.Object {
	entry, ok := c.ctx.FindTableEntryLight(nr)
	if !ok || entry == nil || entry.Free {
		return nil
	}
	return entry.Object
}

func (c *canonWriter) visit(ir types.IndirectRef) {
	nr := ir.ObjectNumber.Value()
	if _, seen := c.renum[nr]; seen {
		return
	}
	c.renum[nr] = len(c.order) + 1
	c.order = append(c.order, nr)
	c.walk(c.object(nr))
}

func (c *canonWriter) walk(o types.Object) {
	switch o := o.(type) {
	case types.IndirectRef:
		c.visit(o)
	case types.Dict:
		c.walkDict(o, "")
	case types.StreamDict:
		// Length is re-derived from the raw content at write time, so an
		// indirect length object is deliberately not followed.
		c.walkDict(o.Dict, "Length")
	case types.Array:
		for _, v := range o {
			c.walk(v)
		}
	}
}

func (c *canonWriter) walkDict(d types.Dict, skip string) {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == skip {
			continue
		}
		c.walk(d[k])
	}
}

func (c *canonWriter) writeObject(buf *bytes.Buffer, o types.Object) error {
	sd, ok := o.(types.StreamDict)
	if !ok {
		buf.WriteString(c.serialize(o))
		return nil
	}

	if sd.Raw == nil && sd.StreamLength != nil && *sd.StreamLength > 0 {
		return fmt.Errorf("stream content not loaded")
	}
	d := types.Dict{}
	for k, v := range sd.Dict {
		d[k] = v
	}
	d["Length"] = types.Integer(len(sd.Raw))

	buf.WriteString(c.serialize(d))
	buf.WriteString("\nstream\n")
	buf.Write(sd.Raw)
	buf.WriteString("\nendstream")
	return nil
}

// serialize renders one object. Containers are handled here so dictionary
// keys come out sorted and indirect references are renumbered; scalars use
// pdfcpu's own representation.
func (c *canonWriter) serialize(o types.Object) string {
	switch o := o.(type) {
	case nil:
		return "null"
	case types.IndirectRef:
		nr, ok := c.renum[o.ObjectNumber.Value()]
		if !ok {
			return "null"
		}
		return fmt.Sprintf("%d 0 R", nr)
	case types.Dict:
		keys := make([]string, 0, len(o))
		for k := range o {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(o))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("/%s %s", types.EncodeName(k), c.serialize(o[k])))
		}
		return "<<" + strings.Join(parts, " ") + ">>"
	case types.StreamDict:
		return c.serialize(o.Dict)
	case types.Array:
		parts := make([]string, 0, len(o))
		for _, v := range o {
			parts = append(parts, c.serialize(v))
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return o.PDFString()
	}
}
