package service

import "strings"

// allowedTags is the restricted markup subset kept in free-text fields.
// Attributes are always dropped.
var allowedTags = map[string]bool{
	"b":      true,
	"i":      true,
	"em":     true,
	"strong": true,
	"code":   true,
	"pre":    true,
}

// sanitizeText strips markup from user-supplied text, keeping only the
// allowlisted inline tags. script/style elements are removed together with
// their content.
func sanitizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	i := 0
	for i < len(input) {
		c := input[i]
		if c != '<' {
			b.WriteByte(c)
			i++
			continue
		}
		end := strings.IndexByte(input[i:], '>')
		if end < 0 {
			// unterminated tag, drop the remainder
			break
		}
		name, closing := parseTagName(input[i+1 : i+end])
		i += end + 1

		switch {
		case name == "script" || name == "style":
			if closing {
				continue
			}
			lower := strings.ToLower(input[i:])
			idx := strings.Index(lower, "</"+name)
			if idx < 0 {
				i = len(input)
				continue
			}
			i += idx
			if gt := strings.IndexByte(input[i:], '>'); gt >= 0 {
				i += gt + 1
			} else {
				i = len(input)
			}
		case allowedTags[name]:
			if closing {
				b.WriteString("</" + name + ">")
			} else {
				b.WriteString("<" + name + ">")
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func parseTagName(tag string) (name string, closing bool) {
	tag = strings.TrimSpace(tag)
	closing = strings.HasPrefix(tag, "/")
	tag = strings.TrimPrefix(tag, "/")
	for idx, r := range tag {
		if r == ' ' || r == '\t' || r == '\n' || r == '/' {
			tag = tag[:idx]
			break
		}
	}
	return strings.ToLower(tag), closing
}
