package wikipedia

import "net/http"

type Option func(*Config)

// WithBaseURL points the tool at a specific MediaWiki api.php endpoint.
// It overrides the URL derived from the language.
func WithBaseURL(baseURL string) Option {
	return func(c *Config) {
		c.baseURL = baseURL
	}
}

func WithLanguage(lang string) Option {
	return func(c *Config) {
		c.language = lang
	}
}

func WithMaxResults(n int) Option {
	return func(c *Config) {
		c.maxResults = n
	}
}

func WithHttpClient(clt *http.Client) Option {
	return func(c *Config) {
		c.httpClient = clt
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Config) {
		c.userAgent = ua
	}
}

// WithPageContent also fetches the top article's body and returns it as
// markdown, truncated to maxLength runes. Zero keeps the default length.
func WithPageContent(maxLength int) Option {
	return func(c *Config) {
		c.fetchContent = true
		c.maxContentLength = maxLength
	}
}
