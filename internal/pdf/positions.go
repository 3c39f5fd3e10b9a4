package pdf

import "github.com/florinivan/asdallinkickboxing/internal/model"

// The overlay positions below are absolute page-space coordinates in points
// with a bottom-left origin, tied to the fixed layout of the association's
// enrollment template. They are data, not derived from template metrics:
// a template relayout requires editing this table only.

type point struct {
	X, Y float64
}

type box struct {
	X, Y, W, H float64
}

// consentPageLayout describes one authorization page of the template: where
// the identity line fields sit, where the place/date line goes, the two
// mutually exclusive consent mark positions, and the signature box.
type consentPageLayout struct {
	Page int

	FullName   point // COGNOME, NOME (uppercase)
	BirthPlace point
	BirthDate  point
	City       point
	Address    point
	PlaceDate  point

	Granted point
	Denied  point

	Signature box

	// consentOf selects which form flag governs the mark on this page.
	consentOf func(model.FormRecord) model.Consent
}

// consentLayouts covers the three authorization pages of the 6-page
// template: image-use release (p.3), marketing consent (p.4) and
// personal-data processing consent (p.5).
var consentLayouts = []consentPageLayout{
	{
		Page:       3,
		FullName:   point{150, 688},
		BirthPlace: point{128, 664},
		BirthDate:  point{392, 664},
		City:       point{166, 640},
		Address:    point{352, 640},
		PlaceDate:  point{92, 214},
		Granted:    point{101, 318},
		Denied:     point{101, 294},
		Signature:  box{340, 150, 170, 52},
		consentOf: func(f model.FormRecord) model.Consent {
			if f.ImageUseConsent {
				return model.ConsentGranted
			}
			return model.ConsentDenied
		},
	},
	{
		Page:       4,
		FullName:   point{150, 700},
		BirthPlace: point{128, 676},
		BirthDate:  point{392, 676},
		City:       point{166, 652},
		Address:    point{352, 652},
		PlaceDate:  point{92, 196},
		Granted:    point{101, 300},
		Denied:     point{101, 276},
		Signature:  box{340, 132, 170, 52},
		consentOf:  func(f model.FormRecord) model.Consent { return f.MarketingConsent },
	},
	{
		Page:       5,
		FullName:   point{150, 694},
		BirthPlace: point{128, 670},
		BirthDate:  point{392, 670},
		City:       point{166, 646},
		Address:    point{352, 646},
		PlaceDate:  point{92, 205},
		Granted:    point{101, 340},
		Denied:     point{101, 316},
		Signature:  box{340, 142, 170, 52},
		consentOf:  func(f model.FormRecord) model.Consent { return f.DataConsent },
	},
}

// Summary page layout shares the metrics of the original client renderer.
const (
	summaryMarginX    = 50.0
	summaryValueX     = 200.0
	summaryLineHeight = 25.0
	summaryTitleSize  = 20.0
	summaryLabelSize  = 12.0
	summaryHeaderSize = 14.0
	summaryWrapWidth  = 60 // characters per note line
)
