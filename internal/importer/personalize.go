package importer

import "strings"

// Personalize substitutes {field} placeholders in a message template.
// {firstName} is replaced globally first (with the empty string when no
// name is known), then every field key in column order. Placeholders
// that reference no known field are left untouched. The function is
// pure: the same template and fields always produce the same output.
func Personalize(template, firstName string, fields *Row) string {
	out := strings.ReplaceAll(template, "{firstName}", firstName)
	if fields == nil {
		return out
	}
	for _, key := range fields.Keys() {
		out = strings.ReplaceAll(out, "{"+key+"}", fields.Get(key))
	}
	return out
}

// PreviewMessage renders the template against a raw data row, the way
// the compose-step live preview does: every column of the row is
// available as a placeholder, and the name column (when mapped) feeds
// {firstName}.
func PreviewMessage(template string, row *Row, nameColumn string) string {
	if row == nil {
		return Personalize(template, "", nil)
	}
	firstName := ""
	if nameColumn != "" {
		firstName = row.Get(nameColumn)
	}
	return Personalize(template, firstName, row)
}

// ContactMessage renders the template for a validated contact. Both
// this and PreviewMessage go through Personalize so the preview and the
// per-contact rendering can never diverge.
func ContactMessage(template string, c Contact) string {
	return Personalize(template, c.FirstName, c.CustomFields)
}
