package pdf

import "strings"

// fieldKey identifies a canonical form concept independent of how a given
// template names its interactive fields.
type fieldKey string

const (
	fieldNome             fieldKey = "nome"
	fieldCognome          fieldKey = "cognome"
	fieldDataNascita      fieldKey = "data_nascita"
	fieldLuogoNascita     fieldKey = "luogo_nascita"
	fieldCodiceFiscale    fieldKey = "codice_fiscale"
	fieldIndirizzo        fieldKey = "indirizzo"
	fieldCitta            fieldKey = "citta"
	fieldCAP              fieldKey = "cap"
	fieldTelefono         fieldKey = "telefono"
	fieldEmail            fieldKey = "email"
	fieldGenitoreNome     fieldKey = "genitore_nome"
	fieldGenitoreTelefono fieldKey = "genitore_telefono"
	fieldGenitoreEmail    fieldKey = "genitore_email"
	fieldEmergenza        fieldKey = "contatto_emergenza"
	fieldEmergenzaTel     fieldKey = "telefono_emergenza"
	fieldNote             fieldKey = "note"
	fieldConsensoDati     fieldKey = "consenso_dati"
	fieldConsensoMktg     fieldKey = "consenso_marketing"
	fieldConsensoImmagini fieldKey = "consenso_immagini"
)

// fieldAliases maps each canonical concept to the spellings observed in the
// association's templates, Italian and English. Matching is case-insensitive
// and a miss is normal, not an error.
var fieldAliases = map[fieldKey][]string{
	fieldNome:             {"nome", "name", "first name", "firstname", "given name", "nome socio", "nome atleta"},
	fieldCognome:          {"cognome", "surname", "last name", "lastname", "family name", "cognome socio", "cognome atleta"},
	fieldDataNascita:      {"data_nascita", "data di nascita", "nato il", "nata il", "birth date", "birthdate", "date of birth", "dob"},
	fieldLuogoNascita:     {"luogo_nascita", "luogo di nascita", "nato a", "nata a", "birth place", "birthplace", "place of birth"},
	fieldCodiceFiscale:    {"codice_fiscale", "codice fiscale", "cod. fiscale", "cf", "tax code", "fiscal code"},
	fieldIndirizzo:        {"indirizzo", "via", "residenza", "address", "street", "street address"},
	fieldCitta:            {"citta", "città", "comune", "city", "town", "comune di residenza"},
	fieldCAP:              {"cap", "codice postale", "postal code", "zip", "zip code"},
	fieldTelefono:         {"telefono", "tel", "cellulare", "phone", "mobile", "telephone"},
	fieldEmail:            {"email", "e-mail", "mail", "posta elettronica"},
	fieldGenitoreNome:     {"genitore", "genitore1_nome", "nome genitore", "genitore/tutore", "tutore", "parent", "parent name", "guardian", "guardian name"},
	fieldGenitoreTelefono: {"genitore1_telefono", "telefono genitore", "tel genitore", "parent phone", "guardian phone"},
	fieldGenitoreEmail:    {"email genitore", "genitore_email", "parent email", "guardian email"},
	fieldEmergenza:        {"contatto_emergenza", "contatto di emergenza", "emergenza", "emergency contact", "emergency"},
	fieldEmergenzaTel:     {"telefono_emergenza", "telefono emergenza", "emergency phone"},
	fieldNote:             {"note", "note aggiuntive", "osservazioni", "notes", "remarks", "comments"},
	fieldConsensoDati:     {"consenso_dati", "consenso dati", "trattamento dati", "privacy", "data consent", "data processing consent"},
	fieldConsensoMktg:     {"consenso_marketing", "consenso marketing", "marketing", "marketing consent", "newsletter"},
	fieldConsensoImmagini: {"consenso_immagini", "uso immagini", "liberatoria immagini", "image consent", "image use", "photo consent"},
}

// canonicalFor resolves an interactive field name to its canonical concept.
func canonicalFor(name string) (fieldKey, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return "", false
	}
	for key, candidates := range fieldAliases {
		for _, c := range candidates {
			if needle == c {
				return key, true
			}
		}
	}
	return "", false
}
