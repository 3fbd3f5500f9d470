package delegation

import "strings"

// splitLabels splits domain into labels on unescaped dots: a literal `\.`
// inside a label is not a separator. The trailing root dot, if present, is
// not itself counted as an empty label.
func splitLabels(domain string) []string {
	trimmed := strings.TrimSuffix(domain, ".")
	if trimmed == "" {
		return nil
	}

	var labels []string
	var cur []byte
	escape := false

	for i := 0; i < len(trimmed); i++ {
		c := trimmed[i]

		if escape {
			cur = append(cur, c)
			escape = false
			continue
		}

		if c == '\\' {
			cur = append(cur, c)
			escape = true
			continue
		}

		if c == '.' {
			labels = append(labels, string(cur))
			cur = nil
			continue
		}

		cur = append(cur, c)
	}

	labels = append(labels, string(cur))
	return labels
}

// suffixZone reconstructs the zone name formed by dropping the leftmost
// dropFront labels from labels, in fully qualified trailing-dot form. A
// dropFront of len(labels) yields the root zone ".".
func suffixZone(labels []string, dropFront int) string {
	if dropFront >= len(labels) {
		return "."
	}
	return strings.Join(labels[dropFront:], ".") + "."
}
