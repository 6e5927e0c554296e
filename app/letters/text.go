package letters

import (
	"log"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var htmlTagPattern = regexp.MustCompile(`(?i)<\s*(p|br|div|html|body|h[1-6]|ul|ol|li|strong|em|b|i|span|table)\b`)

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// PlainText flattens an HTML formatted draft into plain paragraphs. Content that does
// not look like HTML is returned trimmed but otherwise untouched.
func PlainText(content string) string {
	content = strings.TrimSpace(content)
	if !htmlTagPattern.MatchString(content) {
		return content
	}

	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		log.Printf("⚠️ Error parsing HTML letter content: %v", err)
		return content
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
					sb.WriteString(" ")
				}
				sb.WriteString(t)
			}
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] && sb.Len() > 0 &&
			!strings.HasSuffix(sb.String(), "\n") {
			sb.WriteString("\n")
		}
	}
	walk(doc)

	return strings.TrimSpace(sb.String())
}
