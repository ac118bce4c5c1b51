package browser

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	"golang.org/x/net/html"
)

// Candidate is an element that may hold the calculator result.
type Candidate struct {
	Tag   string
	ID    string
	Class string
	Text  string
	// Container marks elements styled like the result box.
	Container bool
}

var candidateTags = map[string]bool{
	"span": true, "div": true, "p": true, "h1": true, "h2": true, "h3": true, "td": true, "strong": true,
}

var candidateKeywords = []string{"age", "biological", "years"}

// FindCandidates lists elements of a rendered page that look like the age
// result: result-styled containers, and elements whose text mentions an age
// and contains a digit.
func FindCandidates(r io.Reader) ([]Candidate, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var out []Candidate
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && candidateTags[n.Data] {
			c := Candidate{Tag: n.Data, ID: attr(n, "id"), Class: attr(n, "class"), Text: textOf(n)}
			c.Container = strings.Contains(c.Class, "bg-primary")
			if c.Container || looksLikeAge(c.Text) {
				out = append(out, c)
			}
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(doc)
	return out, nil
}

func looksLikeAge(text string) bool {
	if !strings.ContainsAny(text, "0123456789") {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range candidateKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// textOf returns the visible text below n with whitespace collapsed.
func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// openURL is swapped out in tests.
var openURL = launcher.Open

// OpenInDefaultBrowser opens url in a desktop browser window without
// waiting for it to close.
func OpenInDefaultBrowser(url string) {
	openURL(url)
}
