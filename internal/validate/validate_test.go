package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/florinivan/asdallinkickboxing/internal/model"
)

func TestCodiceFiscale(t *testing.T) {
	tests := []struct {
		name string
		cf   string
		want bool
	}{
		{"valid uppercase", "RSSMRA80A01H501U", true},
		{"valid lowercase", "rssmra80a01h501u", true},
		{"valid with whitespace", " RSSMRA80A01H501U ", true},
		{"too short", "RSSMRA80A01H501", false},
		{"too long", "RSSMRA80A01H501UX", false},
		{"wrong shape", "1234567890123456", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodiceFiscale(tt.cf))
		})
	}
}

func TestEmail(t *testing.T) {
	assert.True(t, Email("mario.rossi@esempio.it"))
	assert.True(t, Email("a@b.co"))
	assert.False(t, Email("mario.rossi"))
	assert.False(t, Email("mario rossi@esempio.it"))
	assert.False(t, Email("@esempio.it"))
	assert.False(t, Email(""))
}

func TestCAP(t *testing.T) {
	assert.True(t, CAP("20100"))
	assert.False(t, CAP("2010"))
	assert.False(t, CAP("201000"))
	assert.False(t, CAP("2O100"))
}

func TestFormatTelefono(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"3331234567", "+39 333 123 4567"},
		{"393331234567", "+39 333 123 4567"},
		{"+39 333 123 4567", "+39 333 123 4567"},
		{"333-123.4567", "+39 333 123 4567"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTelefono(tt.in), "input %q", tt.in)
	}
}

func TestAge(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 18, Age("2008-06-15", now), "birthday today")
	assert.Equal(t, 17, Age("2008-06-16", now), "birthday tomorrow")
	assert.Equal(t, 18, Age("2008-06-14", now), "birthday yesterday")
	assert.Equal(t, 0, Age("", now))
	assert.Equal(t, 0, Age("not-a-date", now))
}

func TestIsMinor(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	// Exactly 18 years before now is an adult.
	assert.False(t, IsMinor("2008-06-15", now))
	// One day short of the boundary (17 years, 364 days) is a minor.
	assert.True(t, IsMinor("2008-06-16", now))
	assert.True(t, IsMinor("2010-05-01", now))
	assert.False(t, IsMinor("1990-01-01", now))
	// Absent or unparseable dates are treated as adult.
	assert.False(t, IsMinor("", now))
	assert.False(t, IsMinor("  ", now))
	assert.False(t, IsMinor("01/05/2010", now))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "Mario", Sanitize("  Mario "))
	assert.Equal(t, "bMario/b", Sanitize("<b>Mario</b>"))
	assert.Equal(t, "", Sanitize(""))
}

func TestFormRecord(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	valid := model.FormRecord{
		Nome:          "Mario",
		Cognome:       "Rossi",
		DataNascita:   "1990-05-01",
		LuogoNascita:  "Milano",
		CodiceFiscale: "RSSMRA90E01F205Z",
		Indirizzo:     "Via Roma 1",
		Citta:         "Milano",
		CAP:           "20100",
		Telefono:      "+39 333 123 4567",
		Email:         "mario.rossi@esempio.it",
	}

	t.Run("valid adult", func(t *testing.T) {
		assert.Empty(t, FormRecord(valid, now))
	})

	t.Run("missing required fields", func(t *testing.T) {
		errs := FormRecord(model.FormRecord{}, now)
		fields := make(map[string]bool)
		for _, e := range errs {
			fields[e.Field] = true
		}
		for _, f := range []string{"nome", "cognome", "data_nascita", "codice_fiscale", "email"} {
			assert.True(t, fields[f], "expected error for %s", f)
		}
	})

	t.Run("minor requires first guardian", func(t *testing.T) {
		minor := valid
		minor.DataNascita = "2010-05-01"
		errs := FormRecord(minor, now)
		fields := make(map[string]bool)
		for _, e := range errs {
			fields[e.Field] = true
		}
		assert.True(t, fields["genitore1_nome"])
		assert.True(t, fields["genitore1_cognome"])
		assert.True(t, fields["genitore1_telefono"])

		minor.Genitore1 = model.Guardian{Nome: "Luigi", Cognome: "Rossi", Telefono: "+39 333 765 4321"}
		assert.Empty(t, FormRecord(minor, now))
	})

	t.Run("malformed optional-format fields", func(t *testing.T) {
		bad := valid
		bad.CodiceFiscale = "WRONG"
		bad.Email = "not-an-email"
		bad.CAP = "123"
		errs := FormRecord(bad, now)
		assert.Len(t, errs, 3)
	})
}
