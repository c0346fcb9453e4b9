package browser

import (
	"fmt"
	"strings"
	"unicode"
)

// ButtonTextXPath returns an XPath matching button elements whose
// whitespace-normalized text contains label, ignoring case.
//
// XPath 1.0 has no lower-case(), so translate() is given the cased letters
// of the label itself, which covers accented characters like "Ú".
func ButtonTextXPath(label string) (string, error) {
	norm := strings.Join(strings.Fields(label), " ")
	if norm == "" {
		return "", fmt.Errorf("empty button label")
	}

	var upper, lower strings.Builder
	seen := make(map[rune]bool)
	for _, r := range norm {
		u, l := unicode.ToUpper(r), unicode.ToLower(r)
		if u == l || seen[u] {
			continue
		}
		seen[u] = true
		upper.WriteRune(u)
		lower.WriteRune(l)
	}

	needle, err := xpathLiteral(strings.ToLower(norm))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`//button[contains(translate(normalize-space(.), "%s", "%s"), %s)]`,
		upper.String(), lower.String(), needle), nil
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) (string, error) {
	switch {
	case !strings.Contains(s, `"`):
		return `"` + s + `"`, nil
	case !strings.Contains(s, `'`):
		return `'` + s + `'`, nil
	default:
		return "", fmt.Errorf("label %q mixes single and double quotes", s)
	}
}

// ButtonTextRegex returns a case-insensitive JS regex literal matching label.
func ButtonTextRegex(label string) (string, error) {
	norm := strings.Join(strings.Fields(label), " ")
	if norm == "" {
		return "", fmt.Errorf("empty button label")
	}

	var b strings.Builder
	b.WriteByte('/')
	for _, r := range norm {
		if strings.ContainsRune(`\^$.|?*+()[]{}/`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteString("/i")
	return b.String(), nil
}
