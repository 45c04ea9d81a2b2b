package importer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidPhone(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"+1 (212) 555-0134", true}, // 11 digits after stripping
		{"12125550134", true},
		{"123456789012345", true},   // 15 digits, upper bound
		{"1234567890123456", false}, // 16 digits
		{"12345", false},            // below the 10 minimum
		{"123456789", false},        // 9 digits
		{"1234567890", true},        // 10 digits, lower bound
		{"", false},
		{"abc-def", false},
		{"(020) 7946 0958 ext 1", true}, // extension digits count too: 12 after stripping
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidPhone(tt.raw), "raw=%q", tt.raw)
		})
	}
}

func TestPartitionScenario(t *testing.T) {
	ds := dataset(t,
		[]string{"Phone", "Name", "City"},
		[][]string{
			{"+1 (212) 555-0134", "Ana", "NY"},
			{"12345", "Bo", "LA"},
		})

	result := Partition(ds, ColumnMapping{PhoneColumn: "Phone", NameColumn: "Name"})

	require.Len(t, result.Valid, 1)
	require.Len(t, result.Invalid, 1)

	contact := result.Valid[0]
	assert.Equal(t, "+1 (212) 555-0134", contact.Phone)
	assert.Equal(t, "Ana", contact.FirstName)
	assert.Equal(t, []string{"City"}, contact.CustomFields.Keys())
	assert.Equal(t, "NY", contact.CustomFields.Get("City"))

	invalid := result.Invalid[0]
	assert.Equal(t, ReasonInvalidPhone, invalid.Reason)
	assert.Equal(t, "12345", invalid.Fields.Get("Phone"))
	assert.Equal(t, "Bo", invalid.Fields.Get("Name"))
	assert.Equal(t, "LA", invalid.Fields.Get("City"))
}

func TestPartitionMissingPhoneCell(t *testing.T) {
	ds := dataset(t,
		[]string{"Phone", "Name"},
		[][]string{{"", "Ana"}})

	result := Partition(ds, ColumnMapping{PhoneColumn: "Phone", NameColumn: "Name"})
	assert.Empty(t, result.Valid)
	require.Len(t, result.Invalid, 1)
	assert.Equal(t, ReasonInvalidPhone, result.Invalid[0].Reason)
}

func TestPartitionWithoutNameColumn(t *testing.T) {
	ds := dataset(t,
		[]string{"Phone", "Name", "City"},
		[][]string{{"12125550134", "Ana", "NY"}})

	result := Partition(ds, ColumnMapping{PhoneColumn: "Phone"})

	require.Len(t, result.Valid, 1)
	contact := result.Valid[0]
	assert.Empty(t, contact.FirstName)
	// With no name column mapped, the name cell stays a custom field.
	assert.Equal(t, []string{"Name", "City"}, contact.CustomFields.Keys())
}

func TestPartitionSkipsEmptyCustomFields(t *testing.T) {
	ds := dataset(t,
		[]string{"Phone", "Name", "City", "Notes"},
		[][]string{{"12125550134", "Ana", "", "vip"}})

	result := Partition(ds, ColumnMapping{PhoneColumn: "Phone", NameColumn: "Name"})

	require.Len(t, result.Valid, 1)
	assert.Equal(t, []string{"Notes"}, result.Valid[0].CustomFields.Keys())
}

func TestPartitionPreservesRowOrder(t *testing.T) {
	ds := dataset(t,
		[]string{"Phone"},
		[][]string{
			{"1111111111"},
			{"bad"},
			{"2222222222"},
			{"nope"},
			{"3333333333"},
		})

	result := Partition(ds, ColumnMapping{PhoneColumn: "Phone"})

	require.Len(t, result.Valid, 3)
	require.Len(t, result.Invalid, 2)
	assert.Equal(t, "1111111111", result.Valid[0].Phone)
	assert.Equal(t, "2222222222", result.Valid[1].Phone)
	assert.Equal(t, "3333333333", result.Valid[2].Phone)
	assert.Equal(t, "bad", result.Invalid[0].Fields.Get("Phone"))
	assert.Equal(t, "nope", result.Invalid[1].Fields.Get("Phone"))
}

func dataset(t *testing.T, headers []string, rows [][]string) *Dataset {
	t.Helper()
	ds := &Dataset{Headers: headers}
	for _, cells := range rows {
		row := NewRow()
		for i, h := range headers {
			if i < len(cells) {
				row.Set(h, cells[i])
			} else {
				row.Set(h, "")
			}
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds
}

func TestInvalidRowJSONFlattensFields(t *testing.T) {
	row := NewRow()
	row.Set("Phone", "12345")
	row.Set("Name", "Bo")
	row.Set("City", "LA")

	payload, err := json.Marshal(InvalidRow{Fields: row, Reason: ReasonInvalidPhone})
	require.NoError(t, err)
	assert.Equal(t,
		`{"Phone":"12345","Name":"Bo","City":"LA","error":"Invalid phone number format"}`,
		string(payload))
}

func TestInvalidRowJSONReasonShadowsErrorColumn(t *testing.T) {
	row := NewRow()
	row.Set("Phone", "12345")
	row.Set("error", "cell value")

	payload, err := json.Marshal(InvalidRow{Fields: row, Reason: ReasonInvalidPhone})
	require.NoError(t, err)
	assert.Equal(t,
		`{"Phone":"12345","error":"Invalid phone number format"}`,
		string(payload))
}

func TestInvalidRowJSONWithoutFields(t *testing.T) {
	payload, err := json.Marshal(InvalidRow{Reason: ReasonInvalidPhone})
	require.NoError(t, err)
	assert.Equal(t, `{"error":"Invalid phone number format"}`, string(payload))
}
