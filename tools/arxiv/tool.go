package arxiv

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/bububa/research-agents/schema"
	"github.com/bububa/research-agents/tools"
)

type SortBy = string

const (
	RelevanceSort     SortBy = "relevance"
	LastUpdatedSort   SortBy = "lastUpdatedDate"
	SubmittedDateSort SortBy = "submittedDate"
)

const (
	// maxPDFBytes caps how much of a paper is downloaded
	maxPDFBytes = 20 << 20
	// maxPaperTextRunes caps the extracted paper text
	maxPaperTextRunes = 8000
)

// versionSuffix matches the trailing vN of an arXiv entry id
var versionSuffix = regexp.MustCompile(`v\d+$`)

// Input Schema for searching papers on arXiv.
type Input struct {
	schema.Base
	// Query Search query for paper titles, abstracts and authors.
	Query string `json:"query" jsonschema:"title=query,description=Search query for paper titles, abstracts and authors." validate:"required"`
}

func NewInput(query string) *Input {
	return &Input{
		Query: query,
	}
}

func (s Input) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

// Paper represents a single paper from the arXiv feed
type Paper struct {
	schema.Base
	// ID The canonical arXiv identifier, e.g. 1706.03762
	ID string `json:"id" jsonschema:"title=id,description=The canonical arXiv identifier." validate:"required"`
	// Title The paper title
	Title string `json:"title" jsonschema:"title=title,description=The paper title." validate:"required"`
	// Authors The paper authors in feed order
	Authors []string `json:"authors,omitempty" jsonschema:"title=authors,description=The paper authors."`
	// Year The publication year
	Year int `json:"year,omitempty" jsonschema:"title=year,description=The publication year."`
	// URL The abstract page URL
	URL string `json:"url,omitempty" jsonschema:"title=url,description=The abstract page URL."`
	// PDFURL The paper PDF URL
	PDFURL string `json:"pdf_url,omitempty" jsonschema:"title=pdf_url,description=The paper PDF URL."`
	// Abstract The paper abstract
	Abstract string `json:"abstract,omitempty" jsonschema:"title=abstract,description=The paper abstract."`
	// Category The primary arXiv category, e.g. cs.CL
	Category string `json:"category,omitempty" jsonschema:"title=category,description=The primary arXiv category."`
}

func (s Paper) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

// Output Schema for the output of the arXiv search tool.
type Output struct {
	schema.Base
	// Papers The matching papers, most relevant first
	Papers []Paper `json:"papers,omitempty" jsonschema:"title=papers,description=The matching papers."`
}

func (s Output) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

type Config struct {
	tools.Config
	baseURL    string
	maxResults int
	sortBy     SortBy
	httpClient *http.Client
}

// ArxivSearch is a tool for finding paper metadata through the arXiv Atom API.
type ArxivSearch struct {
	Config
}

func New(opts ...Option) *ArxivSearch {
	ret := new(ArxivSearch)
	for _, opt := range opts {
		opt(&ret.Config)
	}
	if ret.Title() == "" {
		ret.SetTitle("arxiv_search")
	}
	if ret.Description() == "" {
		ret.SetDescription("Searches arXiv for research papers and returns their titles, authors, years, identifiers and abstracts. Use this for publications, citations and preprints.")
	}
	if ret.baseURL == "" {
		ret.baseURL = "https://export.arxiv.org/api/query"
	}
	if ret.maxResults == 0 {
		ret.maxResults = 5
	}
	if ret.sortBy == "" {
		ret.sortBy = RelevanceSort
	}
	if ret.httpClient == nil {
		ret.httpClient = http.DefaultClient
	}
	return ret
}

// Run searches the feed and returns paper metadata, most relevant first.
func (t *ArxivSearch) Run(ctx context.Context, input *Input) (*Output, error) {
	feed, err := t.fetchFeed(ctx, input.Query)
	if err != nil {
		return nil, err
	}
	if len(feed.Entries) == 0 {
		return nil, fmt.Errorf("no papers match %q: %w", input.Query, tools.ErrNotFound)
	}
	ret := new(Output)
	ret.Papers = make([]Paper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		paper := entry.paper()
		ret.Papers = append(ret.Papers, paper)
		ret.AddCitations(schema.Citation{
			Origin:     "arxiv",
			Identifier: paper.ID,
			Label:      fmt.Sprintf("arXiv: %s", paper.ID),
		})
	}
	return ret, nil
}

// FetchPaper downloads the paper PDF and extracts its leading text for
// quoting. The text is capped, papers are long.
func (t *ArxivSearch) FetchPaper(ctx context.Context, paper *Paper) (string, error) {
	if paper.PDFURL == "" {
		return "", fmt.Errorf("paper %s has no pdf link: %w", paper.ID, tools.ErrNotFound)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, paper.PDFURL, nil)
	if err != nil {
		return "", err
	}
	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("error fetching paper: %v", err)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("non-200 response from arxiv: %d", httpResp.StatusCode)
	}
	bs, err := io.ReadAll(io.LimitReader(httpResp.Body, maxPDFBytes))
	if err != nil {
		return "", err
	}
	reader, err := pdf.NewReader(bytes.NewReader(bs), int64(len(bs)))
	if err != nil {
		return "", fmt.Errorf("error reading pdf: %v", err)
	}
	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("error extracting pdf text: %v", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, textReader); err != nil {
		return "", err
	}
	text := strings.TrimSpace(buf.String())
	runes := []rune(text)
	if len(runes) > maxPaperTextRunes {
		text = strings.TrimSpace(string(runes[:maxPaperTextRunes])) + "…"
	}
	return text, nil
}

// fetchFeed queries the export API and decodes the Atom feed
func (t *ArxivSearch) fetchFeed(ctx context.Context, query string) (*atomFeed, error) {
	values := url.Values{}
	values.Set("search_query", "all:"+query)
	values.Set("start", "0")
	values.Set("max_results", strconv.Itoa(t.maxResults))
	values.Set("sortBy", t.sortBy)
	values.Set("sortOrder", "descending")
	feedURL := fmt.Sprintf("%s?%s", t.baseURL, values.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error querying arxiv: %v", err)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("non-200 response from arxiv: %d", httpResp.StatusCode)
	}
	feed := new(atomFeed)
	if err := xml.NewDecoder(httpResp.Body).Decode(feed); err != nil {
		return nil, err
	}
	return feed, nil
}

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string       `xml:"id"`
	Title     string       `xml:"title"`
	Summary   string       `xml:"summary"`
	Published string       `xml:"published"`
	Authors   []atomAuthor `xml:"author"`
	Links     []atomLink   `xml:"link"`
	Category  atomCategory `xml:"primary_category"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

// paper flattens a feed entry into the output shape
func (e atomEntry) paper() Paper {
	ret := Paper{
		ID:       versionSuffix.ReplaceAllString(path.Base(e.ID), ""),
		Title:    collapseSpace(e.Title),
		Abstract: collapseSpace(e.Summary),
		URL:      e.ID,
		Category: e.Category.Term,
	}
	if published, err := time.Parse(time.RFC3339, e.Published); err == nil {
		ret.Year = published.Year()
	}
	for _, author := range e.Authors {
		ret.Authors = append(ret.Authors, author.Name)
	}
	for _, link := range e.Links {
		if link.Type == "application/pdf" || link.Title == "pdf" {
			ret.PDFURL = link.Href
			break
		}
	}
	return ret
}

// collapseSpace unwraps the hard-wrapped text arXiv feeds carry
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
