package wikipedia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel-vasile/mimetype"

	"github.com/bububa/research-agents/schema"
	"github.com/bububa/research-agents/tools"
)

const (
	DefaultUserAgent = "research-agents-wikipedia/1.0 (https://github.com/bububa/research-agents)"
	// maxFetchBytes caps how much of an article page is read
	maxFetchBytes = 2 << 20
)

// Input Schema for searching encyclopedia articles on Wikipedia.
type Input struct {
	schema.Base
	// Query Search query for encyclopedia articles.
	Query string `json:"query" jsonschema:"title=query,description=Search query for encyclopedia articles." validate:"required"`
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

// SearchResultItem represents a single article hit
type SearchResultItem struct {
	schema.Base
	// Title The article title
	Title string `json:"title" jsonschema:"title=title,description=The article title." validate:"required"`
	// Snippet A short matching fragment of the article in markdown
	Snippet string `json:"snippet,omitempty" jsonschema:"title=snippet,description=A short matching fragment of the article."`
	// URL The canonical article URL
	URL string `json:"url,omitempty" jsonschema:"title=url,description=The canonical article URL."`
	// WordCount The article length in words
	WordCount int `json:"word_count,omitempty" jsonschema:"title=word_count,description=The article length in words."`
}

func (s SearchResultItem) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

// Output Schema for the output of the Wikipedia search tool.
type Output struct {
	schema.Base
	// Title The title of the best matching article
	Title string `json:"title" jsonschema:"title=title,description=The title of the best matching article."`
	// Summary The introduction of the best matching article in plain text
	Summary string `json:"summary,omitempty" jsonschema:"title=summary,description=The introduction of the best matching article."`
	// Content The article body in markdown when page content was requested
	Content string `json:"content,omitempty" jsonschema:"title=content,description=The article body in markdown."`
	// Results The full list of article hits
	Results []SearchResultItem `json:"results,omitempty" jsonschema:"title=results,description=The full list of article hits."`
}

func (s Output) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

type Config struct {
	tools.Config
	baseURL    string
	language   string
	userAgent  string
	maxResults int
	// fetchContent pulls the top article body besides its summary
	fetchContent     bool
	maxContentLength int
	httpClient       *http.Client
}

// WikipediaSearch is a tool for searching encyclopedia articles through the
// MediaWiki action API and summarizing the best hit.
type WikipediaSearch struct {
	Config
}

func New(opts ...Option) *WikipediaSearch {
	ret := new(WikipediaSearch)
	for _, opt := range opts {
		opt(&ret.Config)
	}
	if ret.Title() == "" {
		ret.SetTitle("wikipedia_search")
	}
	if ret.Description() == "" {
		ret.SetDescription("Searches Wikipedia for encyclopedia articles and returns the best matching article with a plain text summary. Use this for general background, history and people.")
	}
	if ret.language == "" {
		ret.language = "en"
	}
	if ret.baseURL == "" {
		ret.baseURL = fmt.Sprintf("https://%s.wikipedia.org/w/api.php", ret.language)
	}
	if ret.userAgent == "" {
		ret.userAgent = DefaultUserAgent
	}
	if ret.maxResults == 0 {
		ret.maxResults = 5
	}
	if ret.maxContentLength == 0 {
		ret.maxContentLength = 4000
	}
	if ret.httpClient == nil {
		ret.httpClient = http.DefaultClient
	}
	return ret
}

// Run searches for articles matching the query and summarizes the top hit.
func (t *WikipediaSearch) Run(ctx context.Context, input *Input) (*Output, error) {
	hits, err := t.search(ctx, input.Query)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("no articles match %q: %w", input.Query, tools.ErrNotFound)
	}
	top := hits[0]
	summary, err := t.extract(ctx, top.Title)
	if err != nil {
		return nil, err
	}
	if summary == "" {
		summary = top.Snippet
	}
	ret := &Output{
		Title:   top.Title,
		Summary: summary,
		Results: hits,
	}
	if t.fetchContent {
		// the body is an extra, a fetch failure does not void the summary
		if content, err := t.fetchPageContent(ctx, top.Title); err == nil {
			ret.Content = content
		}
	}
	ret.AddCitations(schema.Citation{
		Origin:     "wikipedia",
		Identifier: top.Title,
		Label:      fmt.Sprintf("Wikipedia: %s (summary)", top.Title),
	})
	return ret, nil
}

// search runs a full text article search and converts snippets to markdown.
func (t *WikipediaSearch) search(ctx context.Context, query string) ([]SearchResultItem, error) {
	values := url.Values{}
	values.Set("action", "query")
	values.Set("list", "search")
	values.Set("srsearch", query)
	values.Set("srlimit", strconv.Itoa(t.maxResults))
	values.Set("format", "json")
	values.Set("formatversion", "2")
	var searchResponse struct {
		Query struct {
			Search []struct {
				Title     string `json:"title"`
				Snippet   string `json:"snippet"`
				WordCount int    `json:"wordcount"`
			} `json:"search"`
		} `json:"query"`
	}
	if err := t.call(ctx, values, &searchResponse); err != nil {
		return nil, err
	}
	hits := make([]SearchResultItem, 0, len(searchResponse.Query.Search))
	for _, hit := range searchResponse.Query.Search {
		snippet, err := htmltomarkdown.ConvertString(hit.Snippet)
		if err != nil {
			snippet = hit.Snippet
		}
		hits = append(hits, SearchResultItem{
			Title:     hit.Title,
			Snippet:   strings.TrimSpace(snippet),
			URL:       t.pageURL(hit.Title),
			WordCount: hit.WordCount,
		})
	}
	return hits, nil
}

// extract fetches the plain text introduction of an article.
func (t *WikipediaSearch) extract(ctx context.Context, title string) (string, error) {
	values := url.Values{}
	values.Set("action", "query")
	values.Set("prop", "extracts")
	values.Set("exintro", "1")
	values.Set("explaintext", "1")
	values.Set("redirects", "1")
	values.Set("titles", title)
	values.Set("format", "json")
	values.Set("formatversion", "2")
	var extractResponse struct {
		Query struct {
			Pages []struct {
				Title   string `json:"title"`
				Extract string `json:"extract"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := t.call(ctx, values, &extractResponse); err != nil {
		return "", err
	}
	if pages := extractResponse.Query.Pages; len(pages) > 0 {
		return strings.TrimSpace(pages[0].Extract), nil
	}
	return "", nil
}

// call queries the action API and decodes the JSON response
func (t *WikipediaSearch) call(ctx context.Context, values url.Values, result any) error {
	apiURL := fmt.Sprintf("%s?%s", t.baseURL, values.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("User-Agent", t.userAgent)
	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("error querying wikipedia: %v", err)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("non-200 response from wikipedia: %d", httpResp.StatusCode)
	}
	return json.NewDecoder(httpResp.Body).Decode(result)
}

// fetchPageContent downloads the article page and converts its content
// node to markdown, truncated to the configured length.
func (t *WikipediaSearch) fetchPageContent(ctx context.Context, title string) (string, error) {
	pageURL := t.pageURL(title)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("User-Agent", t.userAgent)
	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("non-200 response from wikipedia: %d", httpResp.StatusCode)
	}
	bs, err := io.ReadAll(io.LimitReader(httpResp.Body, maxFetchBytes))
	if err != nil {
		return "", err
	}
	if mime := mimetype.Detect(bs); !mime.Is("text/html") {
		return "", fmt.Errorf("unexpected page content type: %s", mime.String())
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(bs))
	if err != nil {
		return "", err
	}
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	markdown, err := htmltomarkdown.ConvertString(
		t.extractArticleBody(doc),
		converter.WithDomain(fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)),
	)
	if err != nil {
		return "", err
	}
	return truncate(cleanMarkdownContent(markdown), t.maxContentLength), nil
}

// extractArticleBody picks the article content node and drops site chrome.
func (t *WikipediaSearch) extractArticleBody(doc *goquery.Document) string {
	for _, selector := range []string{"script", "style", "nav", "header", "footer", "table.infobox", ".navbox", ".mw-editsection", "sup.reference", ".mw-jump-link", "#toc"} {
		doc.Find(selector).Remove()
	}
	contentCandidates := []string{
		"#mw-content-text",
		"#content",
		"main",
		"article",
		"body",
	}
	var body string
	for _, selector := range contentCandidates {
		sel := doc.Find(selector)
		if sel.Length() > 0 {
			if txt, err := sel.Html(); err == nil {
				body = txt
				break
			}
		}
	}
	if body == "" {
		body, _ = doc.Html()
	}
	return body
}

// pageURL derives the canonical article URL from the api endpoint.
func (t *WikipediaSearch) pageURL(title string) string {
	base := strings.TrimSuffix(t.baseURL, "/w/api.php")
	return fmt.Sprintf("%s/wiki/%s", base, url.PathEscape(strings.ReplaceAll(title, " ", "_")))
}

// Cleans up the markdown content by removing excessive whitespace
func cleanMarkdownContent(content string) string {
	re := regexp.MustCompile(`\r?\n{2,}`)
	content = re.ReplaceAllString(content, "\n\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// truncate cuts markdown at a rune boundary
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max])) + "…"
}
