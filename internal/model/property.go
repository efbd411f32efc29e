package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Property represents one prospective rental candidate flowing through the
// pipeline. It is created by the retriever, gains image fields in the visual
// verification stage and path fields in the dossier stage, and is read-only
// afterwards. Price never exceeds the requested budget ceiling.
type Property struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Price       int    `json:"price"`
	Address     string `json:"address"`
	Description string `json:"description"`
	Bedrooms    int    `json:"bedrooms"`
	Bathrooms   int    `json:"bathrooms"`
	PetFriendly bool   `json:"pet_friendly"`
	URL         string `json:"url,omitempty"`

	// Set by the visual verifier.
	CloudinaryURL      string `json:"cloudinary_url,omitempty"`
	CloudinaryPublicID string `json:"cloudinary_public_id,omitempty"`

	// Set by the dossier assembler.
	FolderPath     string `json:"folder_path,omitempty"`
	ScreenshotPath string `json:"screenshot_path,omitempty"`
	LeasePath      string `json:"lease_path,omitempty"`
	InfoPath       string `json:"info_path,omitempty"`

	// Set at response assembly.
	ImageURL       string `json:"image_url,omitempty"`
	CurrencyCode   string `json:"currency_code,omitempty"`
	CurrencySymbol string `json:"currency_symbol,omitempty"`
}

// Listing is a finalized property persisted to storage.
type Listing struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Property  Property  `json:"property" db:"data"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PropertyList is a JSON-encoded property slice column.
type PropertyList []Property

// Value implements driver.Valuer interface
func (p PropertyList) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner interface
func (p *PropertyList) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), p)
	}
	return json.Unmarshal(bytes, p)
}

// StringList is a JSON-encoded string slice column.
type StringList []string

// Value implements driver.Valuer interface
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner interface
func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), s)
	}
	return json.Unmarshal(bytes, s)
}

// IntList is a JSON-encoded integer slice column.
type IntList []int

// Value implements driver.Valuer interface
func (l IntList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner interface
func (l *IntList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), l)
	}
	return json.Unmarshal(bytes, l)
}
