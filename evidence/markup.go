package evidence

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxSummaryItems = 10

// Summary is a short reading of a page's markup, enough to tell a login
// page from an error page from the expected view without opening the dump.
type Summary struct {
	Title    string
	Headings []string
	Buttons  []string
	Inputs   int
	Bytes    int
}

// Summarize parses html and extracts its title, headings, buttons and
// input count.
func Summarize(html string) (Summary, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Summary{}, fmt.Errorf("parse markup: %w", err)
	}

	s := Summary{
		Title:  strings.TrimSpace(doc.Find("title").First().Text()),
		Inputs: doc.Find("input, textarea, select").Length(),
		Bytes:  len(html),
	}
	s.Headings = collect(doc.Find("h1, h2, h3"))
	s.Buttons = collect(doc.Find("button, [role='button'], input[type='submit']"))
	return s, nil
}

// Fields renders the summary as log fields.
func (s Summary) Fields() map[string]interface{} {
	return map[string]interface{}{
		"title":    s.Title,
		"headings": strings.Join(s.Headings, " | "),
		"buttons":  strings.Join(s.Buttons, " | "),
		"inputs":   s.Inputs,
		"bytes":    s.Bytes,
	}
}

func collect(sel *goquery.Selection) []string {
	var out []string
	sel.EachWithBreak(func(_ int, item *goquery.Selection) bool {
		text := strings.Join(strings.Fields(item.Text()), " ")
		if text == "" {
			text, _ = item.Attr("value")
		}
		if text != "" {
			out = append(out, text)
		}
		return len(out) < maxSummaryItems
	})
	return out
}
