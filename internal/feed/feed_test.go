// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/parchment/pkg/types"
)

const twoEntryFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <title>ArXiv Query</title>
  <entry>
    <id>http://arxiv.org/abs/2101.00001v2</id>
    <published>2021-01-01T18:59:59Z</published>
    <title>Attention Is
      All You Need</title>
    <summary>  We propose a new
  architecture.
</summary>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
    <arxiv:comment>15 pages, 5 figures</arxiv:comment>
    <arxiv:journal_ref>NeurIPS 2017</arxiv:journal_ref>
    <arxiv:doi>10.1000/xyz123</arxiv:doi>
    <link href="http://arxiv.org/abs/2101.00001v2" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/2101.00001v2" rel="related" type="application/pdf"/>
    <arxiv:primary_category term="cs.CL" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.CL" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
    <category term="stat.ML" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/hep-th/9901001v1</id>
    <published>1999-01-04T00:00:00Z</published>
    <title>Legacy Paper</title>
    <summary>Old abstract.</summary>
    <author><name>Solo Author</name></author>
  </entry>
</feed>`

func singleEntryFeed(id string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/%sv1</id>
    <published>2023-01-17T00:00:00Z</published>
    <title>Only One</title>
    <summary>Single match.</summary>
    <author><name>Jane Doe</name></author>
    <category term="cs.AI"/>
  </entry>
</feed>`, id)
}

func feedWithEntries(n, offset int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><feed xmlns="http://www.w3.org/2005/Atom">`)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<entry><id>http://arxiv.org/abs/2301.%05dv1</id><title>Paper %d</title><summary>s</summary><author><name>A</name></author></entry>`, offset+i, offset+i)
	}
	b.WriteString(`</feed>`)
	return b.String()
}

func testFeedConfig(base string) types.FeedConfig {
	return types.FeedConfig{
		BaseURL:   base,
		PageSize:  9,
		Timeout:   5 * time.Second,
		UserAgent: "parchment-test/0.1",
	}
}

// --- Parse ---

func TestParseNormalizesEntries(t *testing.T) {
	papers, err := Parse([]byte(twoEntryFeed))
	require.NoError(t, err)
	require.Len(t, papers, 2)

	p := papers[0]
	assert.Equal(t, "2101.00001", p.ID)
	assert.Equal(t, "Attention Is All You Need", p.Title)
	assert.Equal(t, "We propose a new architecture.", p.Summary)
	assert.Equal(t, "Ashish Vaswani, Noam Shazeer", p.Authors)
	assert.Equal(t, "15 pages, 5 figures", p.Comments)
	assert.Equal(t, "NeurIPS 2017", p.JournalRef)
	assert.Equal(t, "10.1000/xyz123", p.DOI)
	assert.Equal(t, []string{"cs.CL", "cs.LG"}, p.Tags)
	assert.Equal(t, "01 Jan 2021", p.Date)
	assert.Equal(t, "http://arxiv.org/abs/2101.00001v2", p.Link)
	assert.Equal(t, "https://arxiv.org/pdf/2101.00001v2.pdf", p.PDFLink)
	require.Len(t, p.Links, 2)
	assert.Equal(t, types.Link{Href: "http://arxiv.org/pdf/2101.00001v2", Rel: "related", Title: "pdf", Type: "application/pdf"}, p.Links[1])

	legacy := papers[1]
	assert.Equal(t, "hep-th/9901001", legacy.ID)
	assert.Equal(t, "Solo Author", legacy.Authors)
	assert.Equal(t, []string{types.DefaultTag}, legacy.Tags)
	assert.Equal(t, "04 Jan 1999", legacy.Date)
	assert.Equal(t, "https://arxiv.org/pdf/hep-th/9901001v1.pdf", legacy.PDFLink, "falls back to the entry id")
	assert.Empty(t, legacy.Links)
}

func TestParseSingleEntryIsASlice(t *testing.T) {
	papers, err := Parse([]byte(singleEntryFeed("2301.07041")))
	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.Equal(t, "2301.07041", papers[0].ID)
	assert.Equal(t, []string{"cs.AI"}, papers[0].Tags)
}

func TestParseEmptyFeed(t *testing.T) {
	papers, err := Parse([]byte(`<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"></feed>`))
	require.NoError(t, err)
	assert.Empty(t, papers)
}

func TestParseRejectsNonFeed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"html", "<html><body>blocked</body></html>"},
		{"json", `{"error":"rate limited"}`},
		{"wrong root", `<?xml version="1.0"?><error>nope</error>`},
		{"truncated", `<?xml version="1.0"?><feed><entry><id>x`},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			var fe *FormatError
			assert.True(t, errors.As(err, &fe), "got %v", err)
		})
	}
}

func TestPDFHrefPreference(t *testing.T) {
	assert.Equal(t, "http://arxiv.org/pdf/1", pdfHref([]atomLink{
		{Href: "http://arxiv.org/abs/1", Type: "text/html"},
		{Href: "http://arxiv.org/pdf/1", Type: "application/pdf"},
	}))
	assert.Equal(t, "x", pdfHref([]atomLink{{Href: "x", Title: "pdf"}}))
	assert.Equal(t, "", pdfHref([]atomLink{{Href: "y", Title: "doi"}}))
}

func TestFormatDateInvalid(t *testing.T) {
	assert.Equal(t, "", formatDate("yesterday"))
}

// --- Client ---

func TestFetchPageBuildsRequest(t *testing.T) {
	var got url.Values
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(twoEntryFeed))
	}))
	defer ts.Close()

	c := NewClient(testFeedConfig(ts.URL), types.PlatformNative, ts.Client())
	papers, err := c.FetchPage(context.Background(), PageRequest{
		Query: `all:"deep learning"`, SortBy: "submittedDate", SortOrder: "descending", Start: 18,
	})
	require.NoError(t, err)
	assert.Len(t, papers, 2)

	assert.Equal(t, `all:"deep learning"`, got.Get("search_query"))
	assert.Equal(t, "submittedDate", got.Get("sortBy"))
	assert.Equal(t, "descending", got.Get("sortOrder"))
	assert.Equal(t, "18", got.Get("start"))
	assert.Equal(t, "9", got.Get("max_results"))
	assert.Equal(t, "parchment-test/0.1", gotUA)
}

func TestFetchPageRoutesThroughProxyOnWeb(t *testing.T) {
	var target string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target = r.URL.Query().Get("url")
		w.Write([]byte(feedWithEntries(1, 0)))
	}))
	defer proxy.Close()

	cfg := testFeedConfig("https://export.arxiv.org/api/query")
	cfg.ProxyEnabled = true
	cfg.ProxyBase = proxy.URL + "/?url="

	c := NewClient(cfg, types.PlatformWeb, proxy.Client())
	_, err := c.FetchPage(context.Background(), PageRequest{Query: "cat:cs.AI", SortBy: "relevance", SortOrder: "descending"})
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(target, "https://export.arxiv.org/api/query?"), target)
	u, err := url.Parse(target)
	require.NoError(t, err)
	assert.Equal(t, "cat:cs.AI", u.Query().Get("search_query"))
}

func TestNativePlatformIgnoresProxy(t *testing.T) {
	cfg := testFeedConfig("https://export.arxiv.org/api/query")
	cfg.ProxyEnabled = true
	cfg.ProxyBase = "https://proxy.example/?"

	c := NewClient(cfg, types.PlatformNative, nil)
	assert.Empty(t, c.proxy)
}

func TestFetchPageHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c := NewClient(testFeedConfig(ts.URL), types.PlatformNative, ts.Client())
	_, err := c.FetchPage(context.Background(), PageRequest{Query: "cat:cs.AI"})

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusServiceUnavailable, fe.StatusCode)
}

func TestFetchPageNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := ts.URL
	ts.Close()

	c := NewClient(testFeedConfig(base), types.PlatformNative, nil)
	_, err := c.FetchPage(context.Background(), PageRequest{Query: "cat:cs.AI"})

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Zero(t, fe.StatusCode)
}

func TestFetchPageFormatError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>captcha</html>"))
	}))
	defer ts.Close()

	c := NewClient(testFeedConfig(ts.URL), types.PlatformNative, ts.Client())
	_, err := c.FetchPage(context.Background(), PageRequest{Query: "cat:cs.AI"})

	var fe *FormatError
	assert.True(t, errors.As(err, &fe))
}

func TestFetchPageEmptyQuery(t *testing.T) {
	c := NewClient(testFeedConfig("http://unused"), types.PlatformNative, nil)
	_, err := c.FetchPage(context.Background(), PageRequest{})
	assert.Error(t, err)
}

func TestFetchPaper(t *testing.T) {
	var idList string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idList = r.URL.Query().Get("id_list")
		assert.Empty(t, r.URL.Query().Get("start"))
		w.Write([]byte(singleEntryFeed(idList)))
	}))
	defer ts.Close()

	c := NewClient(testFeedConfig(ts.URL), types.PlatformNative, ts.Client())
	p, err := c.FetchPaper(context.Background(), "https://arxiv.org/abs/2301.07041v3")
	require.NoError(t, err)

	assert.Equal(t, "2301.07041", idList)
	assert.Equal(t, "2301.07041", p.ID)
	assert.Equal(t, "Only One", p.Title)
}

func TestFetchPaperNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"></feed>`))
	}))
	defer ts.Close()

	c := NewClient(testFeedConfig(ts.URL), types.PlatformNative, ts.Client())
	_, err := c.FetchPaper(context.Background(), "2301.99999")
	assert.ErrorIs(t, err, ErrPaperNotFound)

	_, err = c.FetchPaper(context.Background(), "")
	assert.Error(t, err)
}

func TestPageSizeDefault(t *testing.T) {
	c := NewClient(types.FeedConfig{BaseURL: "http://x"}, types.PlatformNative, nil)
	assert.Equal(t, 9, c.PageSize())
}
