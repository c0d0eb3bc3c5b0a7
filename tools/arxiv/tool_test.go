package arxiv

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/bububa/research-agents/tools"
)

const mockFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query: search_query=all:attention</title>
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <published>2017-06-12T17:57:34Z</published>
    <title>Attention Is All You
  Need</title>
    <summary>  The dominant sequence transduction models are based on complex
  recurrent or convolutional neural networks.</summary>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
    <link href="http://arxiv.org/abs/1706.03762v7" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/1706.03762v7" rel="related" type="application/pdf"/>
    <arxiv:primary_category xmlns:arxiv="http://arxiv.org/schemas/atom" term="cs.CL"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/1810.04805v2</id>
    <published>2018-10-11T00:50:01Z</published>
    <title>BERT: Pre-training of Deep Bidirectional Transformers for Language Understanding</title>
    <summary>We introduce a new language representation model called BERT.</summary>
    <author><name>Jacob Devlin</name></author>
    <link href="http://arxiv.org/abs/1810.04805v2" rel="alternate" type="text/html"/>
    <arxiv:primary_category xmlns:arxiv="http://arxiv.org/schemas/atom" term="cs.CL"/>
  </entry>
</feed>`

const emptyFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query: search_query=all:zxqy</title>
</feed>`

func startArxivServer(t *testing.T, feed string) (*httptest.Server, *[]url.Values) {
	t.Helper()
	queries := new([]url.Values)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/query", func(w http.ResponseWriter, r *http.Request) {
		*queries = append(*queries, r.URL.Query())
		w.Header().Set("Content-Type", "application/atom+xml")
		io.WriteString(w, feed)
	})
	return httptest.NewServer(mux), queries
}

func TestArxivSearch(t *testing.T) {
	srv, _ := startArxivServer(t, mockFeed)
	defer srv.Close()
	ctx := context.Background()
	// Initialize the tool
	tool := New(WithBaseURL(srv.URL + "/api/query"))
	result, err := tool.Run(ctx, NewInput("attention"))
	if err != nil {
		t.Fatalf("Error running ArxivSearch: %v", err)
	}
	if len(result.Papers) != 2 {
		t.Fatalf("Expect 2 papers, but got %d", len(result.Papers))
	}
	paper := result.Papers[0]
	if paper.ID != "1706.03762" {
		t.Errorf("Expect version stripped from id, but got %s", paper.ID)
	}
	if paper.Title != "Attention Is All You Need" {
		t.Errorf("Expect unwrapped title, but got %q", paper.Title)
	}
	if paper.Year != 2017 {
		t.Errorf("Expect 2017, but got %d", paper.Year)
	}
	if len(paper.Authors) != 2 || paper.Authors[0] != "Ashish Vaswani" {
		t.Errorf("Expect feed order authors, but got %v", paper.Authors)
	}
	if paper.PDFURL != "http://arxiv.org/pdf/1706.03762v7" {
		t.Errorf("Expect pdf link, but got %s", paper.PDFURL)
	}
	if paper.Category != "cs.CL" {
		t.Errorf("Expect cs.CL, but got %s", paper.Category)
	}
	citations := result.Citations()
	if len(citations) != 2 {
		t.Fatalf("Expect a citation per paper, but got %d", len(citations))
	}
	if citations[0].String() != "arXiv: 1706.03762" {
		t.Errorf("Expect arXiv label, but got %s", citations[0].String())
	}
}

func TestArxivSearchEmptyFeed(t *testing.T) {
	srv, _ := startArxivServer(t, emptyFeed)
	defer srv.Close()
	ctx := context.Background()
	// Initialize the tool
	tool := New(WithBaseURL(srv.URL + "/api/query"))
	if _, err := tool.Run(ctx, NewInput("zxqy")); !errors.Is(err, tools.ErrNotFound) {
		t.Fatalf("Expect not found, but got %v", err)
	}
}

func TestArxivSearchPassesQuery(t *testing.T) {
	srv, queries := startArxivServer(t, mockFeed)
	defer srv.Close()
	ctx := context.Background()
	// Initialize the tool
	tool := New(WithBaseURL(srv.URL+"/api/query"), WithMaxResults(3), WithSortBy(SubmittedDateSort))
	if _, err := tool.Run(ctx, NewInput("bert")); err != nil {
		t.Fatalf("Error running ArxivSearch: %v", err)
	}
	if len(*queries) != 1 {
		t.Fatalf("Expect 1 query, but got %d", len(*queries))
	}
	values := (*queries)[0]
	if got := values.Get("search_query"); got != "all:bert" {
		t.Errorf("Expect all:bert, but got %s", got)
	}
	if got := values.Get("max_results"); got != "3" {
		t.Errorf("Expect max_results 3, but got %s", got)
	}
	if got := values.Get("sortBy"); got != SubmittedDateSort {
		t.Errorf("Expect sortBy %s, but got %s", SubmittedDateSort, got)
	}
}

func TestArxivSearchServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/query", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "throttled", http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	ctx := context.Background()
	// Initialize the tool
	tool := New(WithBaseURL(srv.URL + "/api/query"))
	if _, err := tool.Run(ctx, NewInput("attention")); err == nil {
		t.Fatal("Expect an error, but got nil")
	}
}

func TestFetchPaperWithoutLink(t *testing.T) {
	ctx := context.Background()
	tool := New()
	if _, err := tool.FetchPaper(ctx, &Paper{ID: "1706.03762"}); !errors.Is(err, tools.ErrNotFound) {
		t.Fatalf("Expect not found, but got %v", err)
	}
}

func TestFetchPaperRejectsGarbage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/pdf/1706.03762", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "this is not a pdf")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	ctx := context.Background()
	tool := New()
	paper := &Paper{ID: "1706.03762", PDFURL: srv.URL + "/pdf/1706.03762"}
	if _, err := tool.FetchPaper(ctx, paper); err == nil {
		t.Fatal("Expect an error for a non pdf body, but got nil")
	}
}
