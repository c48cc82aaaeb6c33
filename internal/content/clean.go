package content

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// CleanPasted turns clipboard data into plain text: RTF and HTML markup is
// stripped, control characters other than newline and tab are dropped and
// line endings become "\n".
func CleanPasted(text string) string {
	switch {
	case text == "":
		return text
	case isRTF(text):
		text = fromRTF(text)
	case isHTML(text):
		text = fromHTML(text)
	}
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) {
			return r
		}
		return -1
	}, lineEndings.Replace(text))
}

func isRTF(text string) bool {
	return strings.HasPrefix(text, `{\rtf`) || strings.Contains(text, `\rtf1`)
}

func isHTML(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "<") &&
		(strings.Contains(text, "<html") || strings.Contains(text, "<body") || strings.Contains(text, "<div"))
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func fromRTF(rtf string) string {
	var b strings.Builder
	b.Grow(len(rtf))
	src := []byte(rtf)

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '{' || c == '}':
			continue
		case c != '\\':
			if c >= 32 && c < 127 || c == '\n' || c == '\t' {
				b.WriteByte(c)
			}
			continue
		case i+1 >= len(src):
			continue
		}

		next := src[i+1]
		switch {
		case next == '\'' && i+3 < len(src):
			// \'hh is a code page byte.
			if v, err := strconv.ParseUint(string(src[i+2:i+4]), 16, 8); err == nil {
				b.WriteByte(byte(v))
				i += 3
			}
		case next == '\\' || next == '{' || next == '}':
			b.WriteByte(next)
			i++
		case next == '-':
			b.WriteByte('-')
			i++
		case next == '_':
			b.WriteByte(' ')
			i++
		case isLetter(next):
			start := i + 1
			for i+1 < len(src) && isLetter(src[i+1]) {
				i++
			}
			word := string(src[start : i+1])
			for i+1 < len(src) && (src[i+1] == '-' || src[i+1] >= '0' && src[i+1] <= '9') {
				i++
			}
			if i+1 < len(src) && src[i+1] == ' ' {
				i++
			}
			switch word {
			case "par", "line":
				b.WriteByte('\n')
			case "tab":
				b.WriteByte('\t')
			}
		}
	}
	return b.String()
}

// fromHTML keeps the text content of an HTML fragment. Entities are
// decoded by the tokenizer and non-breaking spaces become plain ones.
// Script and style bodies are dropped; block elements start a new line.
func fromHTML(src string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(src))
	skip := 0
	newline := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
	}
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			if skip == 0 {
				b.WriteString(strings.ReplaceAll(string(z.Text()), "\u00a0", " "))
			}
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style:
				if tt == html.StartTagToken {
					skip++
				} else if tt == html.EndTagToken && skip > 0 {
					skip--
				}
			case atom.Br:
				b.WriteByte('\n')
			case atom.P, atom.Div, atom.Li, atom.Tr, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
				if tt == html.StartTagToken {
					newline()
				}
			}
		}
	}
}
