package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeText(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text untouched", "pump fails at 40C", "pump fails at 40C"},
		{"allowed tags kept", "<b>bold</b> and <em>em</em>", "<b>bold</b> and <em>em</em>"},
		{"attributes dropped", `<b class="x" onclick="y">bold</b>`, "<b>bold</b>"},
		{"disallowed tags stripped", "<div><u>text</u></div>", "text"},
		{"script removed with content", `a<script>alert(1)</script>b`, "ab"},
		{"style removed with content", "a<style>p{}</style>b", "ab"},
		{"unterminated script drops remainder", "a<script>alert(1)", "a"},
		{"unterminated tag drops remainder", "before<b unclosed", "before"},
		{"case insensitive", "<B>x</B><SCRIPT>y</SCRIPT>", "<b>x</b>"},
		{"whitespace trimmed", "  padded  ", "padded"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sanitizeText(tc.input))
		})
	}
}
