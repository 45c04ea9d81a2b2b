package importer

import "strings"

var (
	phoneHints = []string{"phone", "mobile", "cell"}
	nameHints  = []string{"name", "first"}
)

// InferColumns guesses which headers hold the phone number and the
// recipient name: the first header (in file order) whose lowercased
// name contains a known hint wins. The two guesses are independent and
// may land on the same header; either may be empty when nothing
// matches, in which case the user must choose manually.
func InferColumns(headers []string) (phoneColumn, nameColumn string) {
	for _, h := range headers {
		if containsAny(strings.ToLower(h), phoneHints) {
			phoneColumn = h
			break
		}
	}
	for _, h := range headers {
		if containsAny(strings.ToLower(h), nameHints) {
			nameColumn = h
			break
		}
	}
	return phoneColumn, nameColumn
}

func containsAny(s string, hints []string) bool {
	for _, hint := range hints {
		if strings.Contains(s, hint) {
			return true
		}
	}
	return false
}
