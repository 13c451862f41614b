// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/parchment/internal/arxivid"
	"github.com/pdiddy/parchment/pkg/types"
)

// DateLayout is the display format for publication dates ("01 Jan 2021").
const DateLayout = "02 Jan 2006"

// arXiv Atom feed XML structures.
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID         string         `xml:"id"`
	Title      string         `xml:"title"`
	Summary    string         `xml:"summary"`
	Published  string         `xml:"published"`
	Authors    []atomAuthor   `xml:"author"`
	Categories []atomCategory `xml:"category"`
	Links      []atomLink     `xml:"link"`
	Comment    string         `xml:"comment"`
	JournalRef string         `xml:"journal_ref"`
	DOI        string         `xml:"doi"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

// Parse decodes an Atom response body into normalized papers. A body that
// is not an XML feed envelope yields a *FormatError. Zero entries is a
// valid, empty result.
func Parse(body []byte) ([]types.Paper, error) {
	trimmed := bytes.TrimSpace(body)
	if !bytes.HasPrefix(trimmed, []byte("<?xml")) && !bytes.HasPrefix(trimmed, []byte("<feed")) {
		return nil, &FormatError{Err: fmt.Errorf("response is not an XML document")}
	}

	var f atomFeed
	if err := xml.Unmarshal(trimmed, &f); err != nil {
		return nil, &FormatError{Err: err}
	}

	papers := make([]types.Paper, 0, len(f.Entries))
	for _, e := range f.Entries {
		papers = append(papers, normalizeEntry(e))
	}
	return papers, nil
}

func normalizeEntry(e atomEntry) types.Paper {
	rawID := strings.TrimSpace(e.ID)
	id := arxivid.Normalize(rawID)

	p := types.Paper{
		ID:         id,
		Title:      collapseSpace(e.Title),
		Summary:    collapseSpace(e.Summary),
		Authors:    joinAuthors(e.Authors),
		Comments:   strings.TrimSpace(e.Comment),
		JournalRef: strings.TrimSpace(e.JournalRef),
		DOI:        strings.TrimSpace(e.DOI),
		Tags:       entryTags(e.Categories),
		Date:       formatDate(e.Published),
		Link:       rawID,
	}
	if p.Link == "" {
		p.Link = arxivid.AbsURL(id)
	}

	for _, l := range e.Links {
		p.Links = append(p.Links, types.Link{Href: l.Href, Rel: l.Rel, Title: l.Title, Type: l.Type})
	}

	p.PDFLink = arxivid.PDFURL(p.Link)
	if href := pdfHref(e.Links); href != "" {
		p.PDFLink = arxivid.PDFURL(href)
	}
	return p
}

// collapseSpace joins lines into one and trims, squeezing runs of whitespace.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func joinAuthors(authors []atomAuthor) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		if n := strings.TrimSpace(a.Name); n != "" {
			names = append(names, n)
		}
	}
	return strings.Join(names, ", ")
}

func entryTags(cats []atomCategory) []string {
	var tags []string
	for _, c := range cats {
		if c.Term == "" {
			continue
		}
		tags = append(tags, c.Term)
		if len(tags) == types.MaxPaperTags {
			break
		}
	}
	if len(tags) == 0 {
		return []string{types.DefaultTag}
	}
	return tags
}

// pdfHref returns the first link typed or titled as a PDF.
func pdfHref(links []atomLink) string {
	for _, l := range links {
		if strings.Contains(l.Type, "pdf") || l.Title == "pdf" {
			return l.Href
		}
	}
	return ""
}

func formatDate(published string) string {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(published))
	if err != nil {
		return ""
	}
	return t.Format(DateLayout)
}
