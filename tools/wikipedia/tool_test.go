package wikipedia

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/bububa/research-agents/tools"
)

type mockArticle struct {
	Title     string
	Snippet   string
	WordCount int
	Extract   string
	PageHTML  string
}

func startWikipediaServer(t *testing.T, articles []mockArticle) (*httptest.Server, *[]url.Values) {
	t.Helper()
	queries := new([]url.Values)
	mux := http.NewServeMux()
	mux.HandleFunc("/w/api.php", func(w http.ResponseWriter, r *http.Request) {
		values := r.URL.Query()
		*queries = append(*queries, values)
		w.Header().Set("Content-Type", "application/json")
		if values.Get("list") == "search" {
			hits := make([]map[string]any, 0, len(articles))
			for _, a := range articles {
				hits = append(hits, map[string]any{
					"title":     a.Title,
					"snippet":   a.Snippet,
					"wordcount": a.WordCount,
				})
			}
			json.NewEncoder(w).Encode(map[string]any{
				"query": map[string]any{"search": hits},
			})
			return
		}
		if values.Get("prop") == "extracts" {
			title := values.Get("titles")
			for _, a := range articles {
				if a.Title == title {
					json.NewEncoder(w).Encode(map[string]any{
						"query": map[string]any{
							"pages": []map[string]any{{"title": a.Title, "extract": a.Extract}},
						},
					})
					return
				}
			}
			json.NewEncoder(w).Encode(map[string]any{"query": map[string]any{"pages": []any{}}})
			return
		}
		http.NotFound(w, r)
	})
	mux.HandleFunc("/wiki/", func(w http.ResponseWriter, r *http.Request) {
		title := strings.ReplaceAll(strings.TrimPrefix(r.URL.Path, "/wiki/"), "_", " ")
		for _, a := range articles {
			if a.Title == title && a.PageHTML != "" {
				w.Header().Set("Content-Type", "text/html")
				io.WriteString(w, a.PageHTML)
				return
			}
		}
		http.NotFound(w, r)
	})
	return httptest.NewServer(mux), queries
}

func TestWikipediaSearch(t *testing.T) {
	articles := []mockArticle{
		{
			Title:     "Transformer (deep learning)",
			Snippet:   `A <span class="searchmatch">transformer</span> is a deep learning architecture`,
			WordCount: 5000,
			Extract:   "A transformer is a deep learning architecture based on attention.",
		},
		{
			Title:     "Attention (machine learning)",
			Snippet:   `<span class="searchmatch">Attention</span> weighs token relations`,
			WordCount: 3000,
			Extract:   "Attention weighs the relevance of sequence positions.",
		},
	}
	srv, _ := startWikipediaServer(t, articles)
	defer srv.Close()
	ctx := context.Background()
	// Initialize the tool
	tool := New(WithBaseURL(srv.URL + "/w/api.php"))
	result, err := tool.Run(ctx, NewInput("transformer architecture"))
	if err != nil {
		t.Fatalf("Error running WikipediaSearch: %v", err)
	}
	if result.Title != "Transformer (deep learning)" {
		t.Errorf("Expect top hit title, but got %s", result.Title)
	}
	if result.Summary != articles[0].Extract {
		t.Errorf("Expect summary from extract, but got %s", result.Summary)
	}
	if len(result.Results) != 2 {
		t.Fatalf("Expect 2 results, but got %d", len(result.Results))
	}
	if snippet := result.Results[0].Snippet; strings.Contains(snippet, "<span") {
		t.Errorf("Expect snippet markup stripped, but got %s", snippet)
	}
	if !strings.Contains(result.Results[0].URL, "/wiki/Transformer_(deep_learning)") {
		t.Errorf("Expect article URL, but got %s", result.Results[0].URL)
	}
	citations := result.Citations()
	if len(citations) != 1 {
		t.Fatalf("Expect 1 citation, but got %d", len(citations))
	}
	if want := "Wikipedia: Transformer (deep learning) (summary)"; citations[0].String() != want {
		t.Errorf("Expect %s, but got %s", want, citations[0].String())
	}
}

func TestWikipediaSearchNoResults(t *testing.T) {
	srv, _ := startWikipediaServer(t, nil)
	defer srv.Close()
	ctx := context.Background()
	// Initialize the tool
	tool := New(WithBaseURL(srv.URL + "/w/api.php"))
	if _, err := tool.Run(ctx, NewInput("zxqy")); !errors.Is(err, tools.ErrNotFound) {
		t.Fatalf("Expect not found, but got %v", err)
	}
}

func TestWikipediaSearchPassesLimit(t *testing.T) {
	articles := []mockArticle{{Title: "BERT (language model)", Extract: "BERT is a language model."}}
	srv, queries := startWikipediaServer(t, articles)
	defer srv.Close()
	ctx := context.Background()
	// Initialize the tool
	tool := New(WithBaseURL(srv.URL+"/w/api.php"), WithMaxResults(3))
	if _, err := tool.Run(ctx, NewInput("bert")); err != nil {
		t.Fatalf("Error running WikipediaSearch: %v", err)
	}
	if len(*queries) == 0 {
		t.Fatal("Expect recorded queries, but got none")
	}
	if limit := (*queries)[0].Get("srlimit"); limit != "3" {
		t.Errorf("Expect srlimit 3, but got %s", limit)
	}
}

func TestWikipediaSearchFetchesPageContent(t *testing.T) {
	articles := []mockArticle{
		{
			Title:   "Tokenization (lexical analysis)",
			Extract: "Tokenization splits text into tokens.",
			PageHTML: `<html><head><title>Tokenization</title></head><body>
<nav>site nav</nav>
<div id="mw-content-text"><h2>Overview</h2><p>Tokenization splits <b>raw text</b> into tokens.</p></div>
<footer>footer junk</footer>
</body></html>`,
		},
	}
	srv, _ := startWikipediaServer(t, articles)
	defer srv.Close()
	ctx := context.Background()
	// Initialize the tool
	tool := New(WithBaseURL(srv.URL+"/w/api.php"), WithPageContent(0))
	result, err := tool.Run(ctx, NewInput("tokenization"))
	if err != nil {
		t.Fatalf("Error running WikipediaSearch: %v", err)
	}
	if !strings.Contains(result.Content, "**raw text**") {
		t.Errorf("Expect markdown body, but got %s", result.Content)
	}
	if strings.Contains(result.Content, "site nav") || strings.Contains(result.Content, "footer junk") {
		t.Errorf("Expect chrome removed, but got %s", result.Content)
	}
}

func TestWikipediaSearchTruncatesPageContent(t *testing.T) {
	articles := []mockArticle{
		{
			Title:    "Self-attention",
			Extract:  "Self-attention relates sequence positions.",
			PageHTML: `<html><body><div id="mw-content-text"><p>` + strings.Repeat("attention ", 100) + `</p></div></body></html>`,
		},
	}
	srv, _ := startWikipediaServer(t, articles)
	defer srv.Close()
	ctx := context.Background()
	// Initialize the tool
	tool := New(WithBaseURL(srv.URL+"/w/api.php"), WithPageContent(50))
	result, err := tool.Run(ctx, NewInput("self-attention"))
	if err != nil {
		t.Fatalf("Error running WikipediaSearch: %v", err)
	}
	if got := len([]rune(result.Content)); got > 51 {
		t.Errorf("Expect content capped at 50 runes, but got %d", got)
	}
}
