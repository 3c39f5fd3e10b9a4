// Package validate contains pure field validators for the enrollment form.
// The HTTP layer runs these before a fill is attempted; the filler relies on
// them only defensively and never fails on a missing optional field.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/florinivan/asdallinkickboxing/internal/model"
)

var (
	codiceFiscaleRe = regexp.MustCompile(`^[A-Z]{6}[0-9]{2}[A-Z][0-9]{2}[A-Z][0-9]{3}[A-Z]$`)
	emailRe         = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	capRe           = regexp.MustCompile(`^\d{5}$`)
	nonDigitRe      = regexp.MustCompile(`\D`)
	phoneGroupRe    = regexp.MustCompile(`(\+39\s?)(\d{3})(\d{3})(\d{4})`)
)

// CodiceFiscale reports whether cf is a well-formed Italian tax code.
// Comparison is case-insensitive; surrounding whitespace is ignored.
func CodiceFiscale(cf string) bool {
	clean := strings.ToUpper(strings.TrimSpace(cf))
	if len(clean) != 16 {
		return false
	}
	return codiceFiscaleRe.MatchString(clean)
}

// Email reports whether s looks like a deliverable address.
func Email(s string) bool {
	if s == "" {
		return false
	}
	return emailRe.MatchString(strings.TrimSpace(s))
}

// CAP reports whether s is a 5-digit Italian postal code.
func CAP(s string) bool {
	return capRe.MatchString(s)
}

// FormatTelefono normalizes an Italian phone number to "+39 XXX XXX XXXX".
func FormatTelefono(value string) string {
	cleaned := nonDigitRe.ReplaceAllString(value, "")
	if cleaned == "" {
		return ""
	}
	if strings.HasPrefix(cleaned, "39") {
		cleaned = "+39 " + cleaned[2:]
	} else {
		cleaned = "+39 " + cleaned
	}
	return phoneGroupRe.ReplaceAllString(cleaned, "$1$2 $3 $4")
}

// Age returns the whole-year age at now for a YYYY-MM-DD birth date.
// An empty or malformed date yields 0.
func Age(birthDate string, now time.Time) int {
	birth, err := time.Parse("2006-01-02", birthDate)
	if err != nil {
		return 0
	}
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() ||
		(now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// IsMinor reports whether the birth date corresponds to someone under 18 at
// now. An absent birth date is treated as adult.
func IsMinor(birthDate string, now time.Time) bool {
	if strings.TrimSpace(birthDate) == "" {
		return false
	}
	if _, err := time.Parse("2006-01-02", birthDate); err != nil {
		return false
	}
	return Age(birthDate, now) < 18
}

// Sanitize trims an input value and strips angle brackets.
func Sanitize(input string) string {
	return strings.NewReplacer("<", "", ">", "").Replace(strings.TrimSpace(input))
}

// FieldError describes one failed validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FormRecord validates a whole submission and returns one error per failed
// field. An empty slice means the record may be handed to the filler.
func FormRecord(f model.FormRecord, now time.Time) []FieldError {
	var errs []FieldError

	required := []struct {
		field string
		value string
		label string
	}{
		{"nome", f.Nome, "Nome obbligatorio"},
		{"cognome", f.Cognome, "Cognome obbligatorio"},
		{"data_nascita", f.DataNascita, "Data di nascita obbligatoria"},
		{"luogo_nascita", f.LuogoNascita, "Luogo di nascita obbligatorio"},
		{"codice_fiscale", f.CodiceFiscale, "Codice fiscale obbligatorio"},
		{"indirizzo", f.Indirizzo, "Indirizzo obbligatorio"},
		{"citta", f.Citta, "Città obbligatoria"},
		{"cap", f.CAP, "CAP obbligatorio"},
		{"telefono", f.Telefono, "Telefono obbligatorio"},
		{"email", f.Email, "Email obbligatoria"},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, FieldError{Field: r.field, Message: r.label})
		}
	}

	if f.CodiceFiscale != "" && !CodiceFiscale(f.CodiceFiscale) {
		errs = append(errs, FieldError{Field: "codice_fiscale", Message: "Codice fiscale non valido"})
	}
	if f.Email != "" && !Email(f.Email) {
		errs = append(errs, FieldError{Field: "email", Message: "Email non valida"})
	}
	if f.CAP != "" && !CAP(f.CAP) {
		errs = append(errs, FieldError{Field: "cap", Message: "CAP deve essere di 5 cifre"})
	}

	if IsMinor(f.DataNascita, now) {
		if strings.TrimSpace(f.Genitore1.Nome) == "" {
			errs = append(errs, FieldError{Field: "genitore1_nome", Message: "Nome del primo genitore obbligatorio per i minorenni"})
		}
		if strings.TrimSpace(f.Genitore1.Cognome) == "" {
			errs = append(errs, FieldError{Field: "genitore1_cognome", Message: "Cognome del primo genitore obbligatorio per i minorenni"})
		}
		if strings.TrimSpace(f.Genitore1.Telefono) == "" {
			errs = append(errs, FieldError{Field: "genitore1_telefono", Message: "Telefono del primo genitore obbligatorio per i minorenni"})
		}
	}

	return errs
}
