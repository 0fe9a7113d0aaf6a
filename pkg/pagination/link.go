package pagination

import "strings"

// ParseNextLink extracts the rel="next" URL from a Link header value.
// Canvas sends headers of the form:
//
//	<https://school.test/api/v1/courses/1/enrollments?page=2&per_page=100>; rel="next",
//	<https://school.test/api/v1/courses/1/enrollments?page=5&per_page=100>; rel="last"
//
// Returns the empty string when the header has no next relation.
func ParseNextLink(header string) string {
	for _, entry := range strings.Split(header, ",") {
		sections := strings.Split(entry, ";")
		if len(sections) < 2 {
			continue
		}

		target := strings.TrimSpace(sections[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}

		for _, param := range sections[1:] {
			if strings.TrimSpace(param) == `rel="next"` {
				return strings.TrimSuffix(strings.TrimPrefix(target, "<"), ">")
			}
		}
	}
	return ""
}
