package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fields(pairs ...string) *Row {
	row := NewRow()
	for i := 0; i+1 < len(pairs); i += 2 {
		row.Set(pairs[i], pairs[i+1])
	}
	return row
}

func TestPersonalizeFirstName(t *testing.T) {
	assert.Equal(t, "Ana", Personalize("{firstName}", "Ana", nil))
	assert.Equal(t, "", Personalize("{firstName}", "", nil))
	assert.Equal(t, "Hi Ana and Ana", Personalize("Hi {firstName} and {firstName}", "Ana", nil))
}

func TestPersonalizeUnknownPlaceholderUntouched(t *testing.T) {
	assert.Equal(t, "{city}", Personalize("{city}", "Ana", nil))
	assert.Equal(t, "{city}", Personalize("{city}", "Ana", fields("Region", "EU")))
}

func TestPersonalizeCustomFields(t *testing.T) {
	out := Personalize("Hi {firstName}, your code for {City} is ready", "Ana", fields("City", "NY"))
	assert.Equal(t, "Hi Ana, your code for NY is ready", out)
}

func TestPersonalizeEmptyCellBecomesEmpty(t *testing.T) {
	out := Personalize("Your {Coupon} awaits", "", fields("Coupon", ""))
	assert.Equal(t, "Your  awaits", out)
}

func TestPersonalizeIdempotentWithEmptyFieldSet(t *testing.T) {
	// Once no placeholder matches any still-present field, re-applying
	// must not change the output.
	tmpl := "Hi {firstName}, see {link}"
	once := Personalize(tmpl, "", nil)
	twice := Personalize(once, "", nil)
	assert.Equal(t, once, twice)
}

func TestPersonalizeDeterministic(t *testing.T) {
	f := fields("a", "A", "b", "B", "c", "C")
	tmpl := "{a}{b}{c}{a}"
	first := Personalize(tmpl, "", f)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Personalize(tmpl, "", f))
	}
}

func TestContactMessageMatchesPreview(t *testing.T) {
	// The send-time rendering and the live preview must agree for the
	// same underlying row.
	row := fields("Phone", "12125550134", "Name", "Ana", "City", "NY")
	contact := Contact{Phone: "12125550134", FirstName: "Ana", CustomFields: fields("City", "NY")}

	tmpl := "Hi {firstName}, your code for {City} is ready"
	assert.Equal(t,
		PreviewMessage(tmpl, row, "Name"),
		ContactMessage(tmpl, contact))
}

func TestPreviewMessageUsesWholeRow(t *testing.T) {
	row := fields("Phone", "12125550134", "Name", "Ana")
	out := PreviewMessage("Call {Phone}", row, "Name")
	assert.Equal(t, "Call 12125550134", out)
}

func TestPreviewMessageNilRow(t *testing.T) {
	assert.Equal(t, "Hi ", PreviewMessage("Hi {firstName}", nil, "Name"))
}
