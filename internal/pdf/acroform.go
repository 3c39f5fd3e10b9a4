package pdf

import (
	"bytes"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"

	"github.com/florinivan/asdallinkickboxing/internal/model"
)

// acroFormValues maps canonical field concepts to the values to write into
// matching interactive fields. Checkbox concepts carry "on"/"off".
func acroFormValues(f model.FormRecord) map[fieldKey]string {
	vals := map[fieldKey]string{
		fieldNome:          f.Nome,
		fieldCognome:       f.Cognome,
		fieldDataNascita:   f.DataNascita,
		fieldLuogoNascita:  f.LuogoNascita,
		fieldCodiceFiscale: strings.ToUpper(f.CodiceFiscale),
		fieldIndirizzo:     f.Indirizzo,
		fieldCitta:         f.Citta,
		fieldCAP:           f.CAP,
		fieldTelefono:      f.Telefono,
		fieldEmail:         f.Email,
		fieldEmergenza:     f.ContattoEmergenza,
		fieldEmergenzaTel:  f.TelefonoEmergenza,
		fieldNote:          f.Note,
	}
	if !f.Genitore1.Empty() {
		vals[fieldGenitoreNome] = strings.TrimSpace(f.Genitore1.Nome + " " + f.Genitore1.Cognome)
		vals[fieldGenitoreTelefono] = f.Genitore1.Telefono
	}
	vals[fieldConsensoDati] = checkValue(f.DataConsent.Granted())
	vals[fieldConsensoMktg] = checkValue(f.MarketingConsent.Granted())
	vals[fieldConsensoImmagini] = checkValue(f.ImageUseConsent)
	return vals
}

func checkValue(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// fillAcroForm writes form values into any interactive fields whose names
// match a known alias. The pass is best effort: templates without an
// AcroForm, with foreign field names, or with structures pdfcpu cannot
// rewrite all fall back to the original bytes. The caller always receives
// a usable template.
func fillAcroForm(data []byte, form model.FormRecord, log *zap.Logger) []byte {
	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		log.Debug("interactive fill skipped, unreadable context", zap.Error(err))
		return data
	}
	if err := ctx.EnsurePageCount(); err != nil {
		log.Debug("interactive fill skipped, page tree invalid", zap.Error(err))
		return data
	}

	rootDict, err := ctx.Catalog()
	if err != nil {
		log.Debug("interactive fill skipped, no catalog", zap.Error(err))
		return data
	}
	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return data
	}
	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil || acroFormDict == nil {
		return data
	}
	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return data
	}
	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return data
	}

	values := acroFormValues(form)
	filled := 0
	for _, fieldRef := range fieldsArray {
		filled += fillFieldTree(ctx, fieldRef, values, log)
	}
	if filled == 0 {
		return data
	}

	// Viewers must regenerate appearances for the values we injected.
	acroFormDict["NeedAppearances"] = types.Boolean(true)

	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		log.Warn("interactive fill rewrite failed, using original template", zap.Error(err))
		return data
	}
	log.Debug("interactive fields filled", zap.Int("count", filled))
	return buf.Bytes()
}

// fillFieldTree fills one field dictionary and recurses into its kids.
// Returns the number of fields it set.
func fillFieldTree(ctx *pdfmodel.Context, fieldObj types.Object, values map[fieldKey]string, log *zap.Logger) int {
	fieldDict, err := ctx.DereferenceDict(fieldObj)
	if err != nil || fieldDict == nil {
		return 0
	}

	filled := 0
	if kidsObj, found := fieldDict.Find("Kids"); found {
		if kidsArray, err := ctx.DereferenceArray(kidsObj); err == nil {
			for _, kid := range kidsArray {
				filled += fillFieldTree(ctx, kid, values, log)
			}
		}
	}

	name := fieldName(ctx, fieldDict)
	key, ok := canonicalFor(name)
	if !ok {
		return filled
	}
	value, ok := values[key]
	if !ok || value == "" {
		return filled
	}

	switch fieldType(ctx, fieldDict) {
	case "Tx", "Ch":
		fieldDict["V"] = types.StringLiteral(value)
		filled++
	case "Btn":
		if value == "on" {
			fieldDict["V"] = types.Name("Yes")
			fieldDict["AS"] = types.Name("Yes")
		} else {
			fieldDict["V"] = types.Name("Off")
			fieldDict["AS"] = types.Name("Off")
		}
		filled++
	default:
		log.Debug("unsupported interactive field type", zap.String("field", name))
	}
	return filled
}

func fieldName(ctx *pdfmodel.Context, fieldDict types.Dict) string {
	nameObj, found := fieldDict.Find("T")
	if !found {
		return ""
	}
	name, err := ctx.DereferenceStringOrHexLiteral(nameObj, pdfmodel.V10, nil)
	if err != nil {
		return ""
	}
	return name
}

// fieldType resolves the FT entry, walking up to the parent when the field
// inherits it.
func fieldType(ctx *pdfmodel.Context, fieldDict types.Dict) string {
	if ftObj, found := fieldDict.Find("FT"); found {
		if ftName, err := ctx.DereferenceName(ftObj, pdfmodel.V10, nil); err == nil {
			return string(ftName)
		}
	}
	if parentObj, found := fieldDict.Find("Parent"); found {
		if parentDict, err := ctx.DereferenceDict(parentObj); err == nil && parentDict != nil {
			return fieldType(ctx, parentDict)
		}
	}
	return ""
}
