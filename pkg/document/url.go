package document

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/hsnsaboor/repurpose/pkg/apperr"
	"github.com/hsnsaboor/repurpose/pkg/httpclient"
)

// fetchTimeout is the "generous but bounded" timeout this layer calls
// for: long enough for a slow article page, short enough to never hang
// a pipeline run.
const fetchTimeout = 30 * time.Second

// blockedHostSuffixes rejects YouTube URLs here — videos are handled
// exclusively by pkg/transcript, never by generic HTML extraction.
var blockedHostSuffixes = []string{"youtube.com", "youtu.be"}

// URLExtractor fetches a web page and reduces it to clean Markdown
// using a go-readability+goquery+html-to-markdown stack.
type URLExtractor struct {
	http *httpclient.Client
}

// NewURLExtractor builds an extractor sharing the same retry/backoff
// transport as the LLM client and the transcript provider.
func NewURLExtractor() *URLExtractor {
	return &URLExtractor{
		http: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: fetchTimeout}),
			httpclient.WithMaxRetries(2),
			httpclient.WithBaseDelay(1*time.Second),
			httpclient.WithMaxDelay(4*time.Second),
		),
	}
}

// Extract downloads rawURL, strips boilerplate via go-readability, and
// converts the remaining article HTML to Markdown, preserving tables
// and links by default (html-to-markdown's GFM-compatible output).
func (e *URLExtractor) Extract(ctx context.Context, rawURL string) (Result, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindInvalidURL, "parsing URL", err)
	}
	if err := guardHost(parsed); err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindURLFetchFailed, "building request", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := e.http.Do(req)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindURLFetchFailed, "fetching URL", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Result{}, apperr.New(apperr.KindURLFetchFailed, "URL returned status "+resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindURLFetchFailed, "reading response body", err)
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindURLEmptyExtraction, "extracting readable content", err)
	}
	if strings.TrimSpace(article.TextContent) == "" {
		return Result{}, apperr.New(apperr.KindURLEmptyExtraction, "no readable content found at "+rawURL)
	}

	markdown, err := htmltomarkdown.ConvertString(article.Content)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindURLEmptyExtraction, "converting article HTML to Markdown", err)
	}

	metadata := map[string]string{
		"type":       "URL",
		"source_url": rawURL,
	}
	if article.Byline != "" {
		metadata["author"] = article.Byline
	}
	if article.SiteName != "" {
		metadata["site_name"] = article.SiteName
	}
	if article.PublishedTime != nil {
		metadata["published_at"] = article.PublishedTime.Format(time.RFC3339)
	}
	if description, ok := metaDescription(body); ok {
		metadata["description"] = description
	}

	return Result{
		Text:     markdown,
		Title:    article.Title,
		Metadata: metadata,
	}, nil
}

// metaDescription pulls <meta name="description"> out of the raw page,
// a detail readability.Article discards along with the rest of <head>.
func metaDescription(body []byte) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", false
	}
	content, ok := doc.Find(`meta[name="description"]`).First().Attr("content")
	content = strings.TrimSpace(content)
	return content, ok && content != ""
}

// guardHost rejects YouTube hosts (handled by pkg/transcript, never
// generic HTML extraction) and any host resolving to a private or
// loopback address, closing off server-side request forgery against
// internal infrastructure.
func guardHost(parsed *url.URL) error {
	host := strings.ToLower(parsed.Hostname())
	for _, suffix := range blockedHostSuffixes {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return apperr.New(apperr.KindInvalidURL, "YouTube URLs are handled by the transcript acquirer, not the document extractor")
		}
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return apperr.Wrap(apperr.KindInvalidURL, "resolving host", err)
	}
	for _, ip := range ips {
		if isPrivateOrLoopback(ip) {
			return apperr.New(apperr.KindInvalidURL, "refusing to fetch a private-network address")
		}
	}
	return nil
}

func isPrivateOrLoopback(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}
