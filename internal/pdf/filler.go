// Package pdf renders the association's enrollment document: it stamps a
// validated form record onto the fixed multi-page template and appends a
// summary page with everything that was collected.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
	"go.uber.org/zap"

	"github.com/florinivan/asdallinkickboxing/internal/model"
	"github.com/florinivan/asdallinkickboxing/internal/signature"
	"github.com/florinivan/asdallinkickboxing/internal/validate"
)

const (
	overlayFontSize = 11.0
	markFontSize    = 14.0
)

// Filler produces the final enrollment PDF from a validated form record.
type Filler struct {
	template TemplateSource
	location string // printed on the place/date line of each consent page
	log      *zap.Logger
	now      func() time.Time
}

func NewFiller(template TemplateSource, location string, log *zap.Logger) *Filler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Filler{
		template: template,
		location: location,
		log:      log,
		now:      time.Now,
	}
}

// Fill loads the template and produces the final document. It fails only
// when the template cannot be loaded or parsed, or when the final render
// cannot be serialized. Individual overlay fields that cannot be drawn are
// logged and left blank.
func (f *Filler) Fill(ctx context.Context, form model.FormRecord) ([]byte, error) {
	data, err := f.template.Load(ctx)
	if err != nil {
		return nil, err
	}
	pages, err := PageCount(data)
	if err != nil {
		return nil, err
	}

	data = fillAcroForm(data, form, f.log)

	overlay := pages >= minTemplatePages
	if !overlay {
		f.log.Warn("template too short, skipping coordinate overlay",
			zap.Int("pages", pages), zap.Int("required", minTemplatePages))
	}

	doc := fpdf.New("P", "pt", "A4", "")
	doc.SetAutoPageBreak(false, 0)
	tr := doc.UnicodeTranslatorFromDescriptor("")
	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(data))

	layoutByPage := make(map[int]consentPageLayout, len(consentLayouts))
	for _, l := range consentLayouts {
		layoutByPage[l.Page] = l
	}

	for page := 1; page <= pages; page++ {
		tpl := importer.ImportPageFromStream(doc, &rs, page, "/MediaBox")
		box := importer.GetPageSizes()[page]["/MediaBox"]
		w, h := box["w"], box["h"]
		doc.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
		importer.UseImportedTemplate(doc, tpl, 0, 0, w, 0)

		if !overlay {
			continue
		}
		if layout, ok := layoutByPage[page]; ok {
			f.overlayConsentPage(doc, tr, layout, form, h)
		}
	}

	f.appendSummaryPage(doc, tr, form)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	out, err := canonicalize(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}
	return out, nil
}

// overlayConsentPage stamps the identity line, the place/date line, the
// consent mark and the signature onto one authorization page. A draw step
// that panics is confined to this page: the field stays blank and the rest
// of the document still renders.
func (f *Filler) overlayConsentPage(doc *fpdf.Fpdf, tr func(string) string, layout consentPageLayout, form model.FormRecord, pageH float64) {
	defer func() {
		if r := recover(); r != nil {
			f.log.Error("overlay failed, page left partially blank",
				zap.Int("page", layout.Page), zap.Any("cause", r))
		}
	}()

	doc.SetFont("Helvetica", "", overlayFontSize)
	doc.SetTextColor(0, 0, 0)

	text := func(p point, s string) {
		if s == "" {
			return
		}
		doc.Text(p.X, pageH-p.Y, tr(s))
	}

	fullName := strings.TrimSpace(form.Cognome + ", " + form.Nome)
	text(layout.FullName, strings.ToUpper(fullName))
	text(layout.BirthPlace, form.LuogoNascita)
	text(layout.BirthDate, form.DataNascita)
	text(layout.City, form.Citta)
	text(layout.Address, form.Indirizzo)
	text(layout.PlaceDate, f.location+", "+f.now().Format("02/01/2006"))

	switch consent := layout.consentOf(form); {
	case consent.Granted():
		doc.SetFont("Helvetica", "B", markFontSize)
		text(layout.Granted, "X")
	case consent.Denied():
		doc.SetFont("Helvetica", "B", markFontSize)
		text(layout.Denied, "X")
	}

	f.drawSignature(doc, tr, layout, form, pageH)
}

// drawSignature places the captured signature raster into the page's
// signature box, or falls back to the plain name when the capture is
// missing or undecodable.
func (f *Filler) drawSignature(doc *fpdf.Fpdf, tr func(string) string, layout consentPageLayout, form model.FormRecord, pageH float64) {
	sig := layout.Signature
	yTop := pageH - sig.Y - sig.H

	if form.Signature != "" {
		png, err := signature.Decode(form.Signature)
		if err == nil {
			name := fmt.Sprintf("signature-p%d", layout.Page)
			opts := fpdf.ImageOptions{ImageType: "PNG"}
			doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))

			// Scale into the box keeping the 400x150 capture aspect.
			scale := sig.W / signature.CanvasWidth
			if hs := sig.H / signature.CanvasHeight; hs < scale {
				scale = hs
			}
			w := signature.CanvasWidth * scale
			h := signature.CanvasHeight * scale
			doc.ImageOptions(name, sig.X, yTop+(sig.H-h), w, h, false, opts, 0, "")
			return
		}
		f.log.Warn("signature decode failed, using text fallback",
			zap.Int("page", layout.Page), zap.Error(err))
	}

	doc.SetFont("Helvetica", "I", overlayFontSize)
	doc.SetTextColor(0, 0, 0)
	doc.Text(sig.X, yTop+sig.H-4, tr(strings.TrimSpace(form.Nome+" "+form.Cognome)))
}

// appendSummaryPage adds the trailing recap page listing every collected
// field. Empty required fields are rendered in red as "[NON SPECIFICATO]"
// so a bypassed validation is still visible on paper.
func (f *Filler) appendSummaryPage(doc *fpdf.Fpdf, tr func(string) string, form model.FormRecord) {
	doc.AddPageFormat("P", fpdf.SizeType{Wd: 595.28, Ht: 841.89})
	pageW, pageH := doc.GetPageSize()

	darkBlue := func() { doc.SetTextColor(26, 51, 102) }
	black := func() { doc.SetTextColor(0, 0, 0) }
	red := func() { doc.SetTextColor(204, 51, 51) }

	doc.SetFont("Helvetica", "B", summaryTitleSize)
	darkBlue()
	doc.Text(summaryMarginX, 50, tr("DATI COMPILATI"))

	doc.SetDrawColor(26, 51, 102)
	doc.SetLineWidth(2)
	doc.Line(summaryMarginX, 70, pageW-summaryMarginX, 70)

	y := 100.0

	row := func(label, value string, required bool) {
		value = strings.TrimSpace(value)
		switch {
		case value != "":
			doc.SetFont("Helvetica", "B", summaryLabelSize)
			darkBlue()
			doc.Text(summaryMarginX, y, tr(label+":"))
			doc.SetFont("Helvetica", "", summaryLabelSize)
			black()
			doc.Text(summaryValueX, y, tr(value))
			y += summaryLineHeight
		case required:
			red()
			doc.SetFont("Helvetica", "B", summaryLabelSize)
			doc.Text(summaryMarginX, y, tr(label+":"))
			doc.SetFont("Helvetica", "", summaryLabelSize)
			doc.Text(summaryValueX, y, "[NON SPECIFICATO]")
			y += summaryLineHeight
		}
	}

	header := func(title string) {
		y += 10
		doc.SetFont("Helvetica", "B", summaryHeaderSize)
		darkBlue()
		doc.Text(summaryMarginX, y, tr(title))
		y += summaryLineHeight
	}

	row("Nome Completo", strings.TrimSpace(form.Nome+" "+form.Cognome), true)
	row("Data di Nascita", form.DataNascita, true)
	row("Luogo di Nascita", form.LuogoNascita, true)
	row("Codice Fiscale", strings.ToUpper(form.CodiceFiscale), true)
	row("Indirizzo", form.Indirizzo, true)
	row("Città", form.Citta, false)
	row("CAP", form.CAP, false)
	row("Telefono", form.Telefono, true)
	row("Email", form.Email, true)

	if validate.IsMinor(form.DataNascita, f.now()) {
		header("DATI GENITORE/TUTORE:")
		row("Nome Genitore/Tutore", strings.TrimSpace(form.Genitore1.Nome+" "+form.Genitore1.Cognome), true)
		row("Telefono Genitore", form.Genitore1.Telefono, true)
		if !form.Genitore2.Empty() {
			row("Secondo Genitore", strings.TrimSpace(form.Genitore2.Nome+" "+form.Genitore2.Cognome), false)
			row("Telefono Secondo Genitore", form.Genitore2.Telefono, false)
		}
	}

	header("CONTATTI DI EMERGENZA:")
	row("Contatto di Emergenza", form.ContattoEmergenza, false)
	row("Telefono Emergenza", form.TelefonoEmergenza, false)

	if strings.TrimSpace(form.Note) != "" {
		header("NOTE:")
		doc.SetFont("Helvetica", "", summaryLabelSize)
		black()
		for _, line := range wrapText(form.Note, summaryWrapWidth) {
			doc.Text(summaryMarginX, y, tr(line))
			y += summaryLineHeight
		}
	}

	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(128, 128, 128)
	footer := "Documento compilato il: " + f.now().Format("02/01/2006, 15:04:05")
	doc.Text(summaryMarginX, pageH-50, tr(footer))
}

// wrapText breaks text on spaces into lines of at most maxLen characters.
// A single word longer than maxLen gets a line of its own.
func wrapText(text string, maxLen int) []string {
	var lines []string
	var current string
	for _, word := range strings.Fields(text) {
		switch {
		case current == "":
			current = word
		case len(current)+1+len(word) <= maxLen:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
