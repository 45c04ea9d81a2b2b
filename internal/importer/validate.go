package importer

import (
	"bytes"
	"encoding/json"
	"regexp"
)

// ColumnMapping is the user's assignment of file columns: which column
// carries the phone number and, optionally, which carries the name.
type ColumnMapping struct {
	PhoneColumn string `json:"phone_column"`
	NameColumn  string `json:"name_column,omitempty"`
}

// Contact is a row that passed phone validation. Phone keeps the raw
// cell value; CustomFields holds every other non-empty cell keyed by
// its original column name, phone and name columns excluded.
type Contact struct {
	Phone        string `json:"phone"`
	FirstName    string `json:"firstName,omitempty"`
	CustomFields *Row   `json:"customFields"`
}

// InvalidRow is a row that failed validation, kept for display only.
type InvalidRow struct {
	Fields *Row
	Reason string
}

// MarshalJSON flattens the row's cells alongside the rejection reason,
// so the wire shape is the original row object plus an "error" key. A
// column literally named "error" is shadowed by the reason.
func (r InvalidRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if r.Fields != nil {
		for _, key := range r.Fields.Keys() {
			if key == "error" {
				continue
			}
			k, err := json.Marshal(key)
			if err != nil {
				return nil, err
			}
			v, err := json.Marshal(r.Fields.Get(key))
			if err != nil {
				return nil, err
			}
			buf.Write(k)
			buf.WriteByte(':')
			buf.Write(v)
			buf.WriteByte(',')
		}
	}
	reason, err := json.Marshal(r.Reason)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`"error":`)
	buf.Write(reason)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ReasonInvalidPhone is the per-row rejection message shown to the user.
const ReasonInvalidPhone = "Invalid phone number format"

// The pattern is applied to the already-stripped digit string, so the
// optional leading + can never match. Kept as-is to preserve the exact
// accepted input set.
var (
	phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	nonDigit     = regexp.MustCompile(`\D`)
)

// ValidPhone reports whether the raw cell value contains 10 to 15
// digits once every non-digit character is stripped.
func ValidPhone(raw string) bool {
	if raw == "" {
		return false
	}
	return phonePattern.MatchString(nonDigit.ReplaceAllString(raw, ""))
}

// ImportResult is the full partition of a dataset into valid contacts
// and rejected rows. Original row order is preserved in each slice.
type ImportResult struct {
	Valid   []Contact    `json:"valid"`
	Invalid []InvalidRow `json:"invalid"`
}

// Partition classifies every row of the dataset against the mapping.
// It always processes the entire dataset and returns the complete
// partition in one shot.
func Partition(ds *Dataset, mapping ColumnMapping) *ImportResult {
	result := &ImportResult{}

	for _, row := range ds.Rows {
		phone := row.Get(mapping.PhoneColumn)
		if !ValidPhone(phone) {
			result.Invalid = append(result.Invalid, InvalidRow{
				Fields: row,
				Reason: ReasonInvalidPhone,
			})
			continue
		}

		contact := Contact{
			Phone:        phone,
			CustomFields: NewRow(),
		}
		if mapping.NameColumn != "" {
			contact.FirstName = row.Get(mapping.NameColumn)
		}
		for _, key := range row.Keys() {
			if key == mapping.PhoneColumn {
				continue
			}
			if mapping.NameColumn != "" && key == mapping.NameColumn {
				continue
			}
			if value := row.Get(key); value != "" {
				contact.CustomFields.Set(key, value)
			}
		}

		result.Valid = append(result.Valid, contact)
	}

	return result
}
