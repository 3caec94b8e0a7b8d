// Package extract converts raw policy HTML into normalized, link-preserving
// plain text and discovers related legal-page links.
package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Tags stripped from the DOM before any content selection.
var removeTags = []string{
	"script", "style", "nav", "header", "footer", "aside",
	"noscript", "iframe", "svg", "canvas", "video", "audio",
	"picture", "source", "form", "button", "input", "select", "textarea",
}

// CSS classes whose elements carry screen-reader-only text.
var srOnlyClasses = []string{
	"sr-only", "visually-hidden", "screen-reader-text",
	"screenreader", "a11y-hidden", "clip-hidden",
}

// Prioritized selectors for locating the main policy body. The first
// candidate with more than minMainContent visible characters wins.
var contentSelectors = []string{
	"article", "[role='main']", "main",
	".policy-content", ".privacy-policy", ".terms-of-service", ".legal-content",
	"#content", "#main-content", ".content",
	".entry-content", ".post-content", ".page-content", ".body-content",
}

const minMainContent = 200

// Extractor converts cleaned HTML into markdown-flavored plain text.
type Extractor struct {
	conv *converter.Converter
}

// New builds an Extractor with a markdown converter that preserves
// hyperlinks inline and renders simple tables.
func New() *Extractor {
	return &Extractor{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Text extracts the main policy text from an HTML document. Malformed
// HTML degrades to whatever text can be recovered rather than failing.
func (e *Extractor) Text(rawHTML []byte, pageURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find(strings.Join(removeTags, ", ")).Remove()

	main := mainContent(doc)
	preprocess(main, pageURL)

	markup, err := goquery.OuterHtml(main)
	if err != nil {
		return CleanText(main.Text()), nil
	}

	text, err := e.conv.ConvertString(markup, converter.WithDomain(pageURL))
	if err != nil || strings.TrimSpace(text) == "" {
		text = main.Text()
	}
	return CleanText(text), nil
}

// mainContent tries the prioritized selector list, falling back to body.
func mainContent(doc *goquery.Document) *goquery.Selection {
	for _, sel := range contentSelectors {
		found := doc.Find(sel).First()
		if found.Length() == 0 {
			continue
		}
		if len(strings.TrimSpace(found.Text())) > minMainContent {
			return found
		}
	}
	if body := doc.Find("body").First(); body.Length() > 0 {
		return body
	}
	return doc.Selection
}

// preprocess applies the DOM fixes needed before markdown conversion:
// hidden-element removal, link resolution, invisible-unicode stripping,
// empty-heading removal, table header promotion, and complex-table
// flattening.
func preprocess(s *goquery.Selection, pageURL string) {
	stripHiddenElements(s)
	if pageURL != "" {
		resolveRelativeLinks(s, pageURL)
	}
	stripInvisibleUnicode(s)
	removeEmptyHeadings(s)
	promoteTableHeaders(s)
	flattenComplexTables(s)
}

func stripHiddenElements(s *goquery.Selection) {
	for _, cls := range srOnlyClasses {
		s.Find("." + cls).Remove()
	}
	s.Find("[aria-hidden='true']").Each(func(_ int, el *goquery.Selection) {
		name := goquery.NodeName(el)
		if name == "span" || name == "i" || name == "svg" || name == "img" ||
			len(strings.TrimSpace(el.Text())) < 3 {
			el.Remove()
		}
	})
}

func resolveRelativeLinks(s *goquery.Selection, pageURL string) {
	baseURL, err := url.Parse(pageURL)
	if err != nil {
		return
	}
	s.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if href == "" || strings.HasPrefix(href, "http") ||
			strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		a.SetAttr("href", baseURL.ResolveReference(ref).String())
	})
}

func stripInvisibleUnicode(s *goquery.Selection) {
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			n.Data = stripInvisible(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
}

func removeEmptyHeadings(s *goquery.Selection) {
	s.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, h *goquery.Selection) {
		if strings.TrimSpace(h.Text()) == "" {
			h.Remove()
		}
	})
}

// promoteTableHeaders renames first-row <td> cells styled as bold to <th>
// so the markdown table renderer treats them as headers.
func promoteTableHeaders(s *goquery.Selection) {
	s.Find("table").Each(func(_ int, tbl *goquery.Selection) {
		cells := tbl.Find("tr").First().Find("td")
		if cells.Length() == 0 {
			return
		}
		allBold := true
		cells.Each(func(_ int, cell *goquery.Selection) {
			cls, _ := cell.Attr("class")
			if !strings.Contains(cls, "font-semibold") && !strings.Contains(cls, "font-bold") {
				allBold = false
			}
		})
		if !allBold {
			return
		}
		cells.Each(func(_ int, cell *goquery.Selection) {
			for _, n := range cell.Nodes {
				n.Data = "th"
			}
		})
	})
}

// flattenComplexTables replaces any table whose data cells contain block
// elements with a linear heading+content sequence. Markdown tables only
// support single-line cells, so these tables would otherwise lose content.
func flattenComplexTables(s *goquery.Selection) {
	s.Find("table").Each(func(_ int, tbl *goquery.Selection) {
		rows := tbl.Find("tr")
		if rows.Length() < 2 {
			return
		}
		dataRows := rows.Slice(1, rows.Length())

		hasBlock := false
		dataRows.Each(func(_ int, row *goquery.Selection) {
			row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
				if cell.Find("ul, ol, p, blockquote, pre").Length() > 0 {
					hasBlock = true
				}
			})
		})
		if !hasBlock {
			return
		}

		var headers []string
		rows.First().Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, strings.TrimSpace(cell.Text()))
		})

		var b strings.Builder
		b.WriteString("<div>")
		dataRows.Each(func(_ int, row *goquery.Selection) {
			row.Find("td, th").Each(func(ci int, cell *goquery.Selection) {
				label := fmt.Sprintf("Column %d", ci+1)
				if ci < len(headers) && headers[ci] != "" {
					label = headers[ci]
				}
				inner, err := cell.Html()
				if err != nil {
					inner = html.EscapeString(cell.Text())
				}
				b.WriteString("<h4>")
				b.WriteString(html.EscapeString(label))
				b.WriteString("</h4>")
				b.WriteString(inner)
			})
		})
		b.WriteString("</div>")
		tbl.ReplaceWithHtml(b.String())
	})
}
