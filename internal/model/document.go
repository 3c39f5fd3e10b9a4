package model

import (
	"fmt"
	"math"
	"time"
)

// Consent is a tri-state consent flag. The zero value means the person
// left the choice blank, which is distinct from an explicit refusal.
type Consent string

const (
	ConsentUnset   Consent = ""
	ConsentGranted Consent = "granted"
	ConsentDenied  Consent = "denied"
)

// Granted reports whether the consent was explicitly given.
func (c Consent) Granted() bool { return c == ConsentGranted }

// Denied reports whether the consent was explicitly refused.
func (c Consent) Denied() bool { return c == ConsentDenied }

// Guardian holds the data of a parent or legal tutor, required on the
// enrollment form when the member is a minor.
type Guardian struct {
	Nome     string `json:"nome"`
	Cognome  string `json:"cognome"`
	Telefono string `json:"telefono"`
}

// Empty reports whether no guardian data was entered at all.
func (g Guardian) Empty() bool {
	return g.Nome == "" && g.Cognome == "" && g.Telefono == ""
}

// FormRecord is the validated enrollment form as submitted by the member.
// Field names mirror the association's Italian form labels.
type FormRecord struct {
	Nome          string `json:"nome"`
	Cognome       string `json:"cognome"`
	DataNascita   string `json:"data_nascita"` // YYYY-MM-DD
	LuogoNascita  string `json:"luogo_nascita"`
	CodiceFiscale string `json:"codice_fiscale"`
	Indirizzo     string `json:"indirizzo"`
	Citta         string `json:"citta"`
	CAP           string `json:"cap"`
	Provincia     string `json:"provincia"`
	Telefono      string `json:"telefono"`
	Email         string `json:"email"`

	Genitore1 Guardian `json:"genitore1"`
	Genitore2 Guardian `json:"genitore2"`

	ContattoEmergenza string `json:"contatto_emergenza"`
	TelefonoEmergenza string `json:"telefono_emergenza"`
	Note              string `json:"note"`

	MarketingConsent Consent `json:"marketing_consent"`
	DataConsent      Consent `json:"data_consent"`
	ImageUseConsent  bool    `json:"image_use_consent"`

	// Signature is an optional freehand signature as a data URL
	// (data:image/png;base64,...). Empty means no signature was captured.
	Signature string `json:"signature"`
}

// UserData is the denormalized snapshot of the form subset kept on each
// generated document for display and search.
type UserData struct {
	Nome          string `json:"nome"`
	Cognome       string `json:"cognome"`
	Email         string `json:"email"`
	Telefono      string `json:"telefono"`
	DataNascita   string `json:"data_nascita"`
	LuogoNascita  string `json:"luogo_nascita"`
	CodiceFiscale string `json:"codice_fiscale"`
	Indirizzo     string `json:"indirizzo"`
	Citta         string `json:"citta"`
	CAP           string `json:"cap"`
	Provincia     string `json:"provincia"`
}

// Snapshot derives the stored UserData subset from a form record.
func Snapshot(f FormRecord) UserData {
	return UserData{
		Nome:          f.Nome,
		Cognome:       f.Cognome,
		Email:         f.Email,
		Telefono:      f.Telefono,
		DataNascita:   f.DataNascita,
		LuogoNascita:  f.LuogoNascita,
		CodiceFiscale: f.CodiceFiscale,
		Indirizzo:     f.Indirizzo,
		Citta:         f.Citta,
		CAP:           f.CAP,
		Provincia:     f.Provincia,
	}
}

// GeneratedDocument is the archive entry for one generated PDF. The record
// is immutable after creation, except for Tags. The binary content lives in
// blob storage under Filename.
type GeneratedDocument struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	GeneratedAt time.Time `json:"generated_at"`
	UserData    UserData  `json:"user_data"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Tags        []string  `json:"tags"`
}

// DisplayName returns "Nome Cognome" for listing views.
func (d *GeneratedDocument) DisplayName() string {
	return d.UserData.Nome + " " + d.UserData.Cognome
}

// FormattedSize renders Size as a human readable string, e.g. "1.25 MB".
func (d *GeneratedDocument) FormattedSize() string {
	return FormatFileSize(d.Size)
}

// FormatFileSize renders a byte count as a human readable string.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	const k = 1024
	sizes := []string{"Bytes", "KB", "MB", "GB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(k)))
	if i >= len(sizes) {
		i = len(sizes) - 1
	}
	v := float64(bytes) / math.Pow(k, float64(i))
	s := fmt.Sprintf("%g", math.Round(v*100)/100)
	return s + " " + sizes[i]
}

// SearchFilter narrows document searches. All fields are optional and
// combined with logical AND. Name fields match as case-insensitive
// substrings; the date range is inclusive.
type SearchFilter struct {
	Nome     string
	Cognome  string
	Email    string
	DateFrom time.Time
	DateTo   time.Time
}

// Empty reports whether no filter criteria are set.
func (f SearchFilter) Empty() bool {
	return f.Nome == "" && f.Cognome == "" && f.Email == "" &&
		f.DateFrom.IsZero() && f.DateTo.IsZero()
}

// DocumentStats summarizes the archive for the admin dashboard.
// Week is the trailing 7 days; month runs from the first of the current
// month, both inclusive of now.
type DocumentStats struct {
	Total     int   `json:"total"`
	Today     int   `json:"today"`
	ThisWeek  int   `json:"thisWeek"`
	ThisMonth int   `json:"thisMonth"`
	TotalSize int64 `json:"totalSize"`

	// LocalStorage is filled in by the service layer; nil when the local
	// tier could not be inspected.
	LocalStorage *StorageUsage `json:"localStorage,omitempty"`
}

// StorageUsage is the footprint of the local blob tier: how many envelopes
// sit on disk, their serialized size, how many fail the integrity check on
// read, and the per-blob quota they are held to.
type StorageUsage struct {
	Files        int   `json:"files"`
	TotalBytes   int64 `json:"totalBytes"`
	CorruptFiles int   `json:"corruptFiles"`
	QuotaBytes   int64 `json:"quotaBytes"`
}
