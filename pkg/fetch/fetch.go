// Package fetch retrieves degree requirement documents from the
// program catalog website. Program pages embed their data as a Next.js
// JSON blob, which is extracted and handed to the ingestion layer.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
	"golang.org/x/net/html"

	"github.com/degreescope/degreescope/internal/utils"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0"

var ErrNoDocument = errors.New("page contains no requirement document")

type Client struct {
	http *retryablehttp.Client
}

func NewClient(proxy string) (*Client, error) {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = stdlog.New(io.Discard, "", 0)
	retryClient.RetryMax = 5

	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %v", err)
		}
		retryClient.HTTPClient.Transport = &http.Transport{
			Proxy: http.ProxyURL(proxyURL),
		}
	}

	return &Client{http: retryClient}, nil
}

// FetchProgramJSON downloads a program page and returns the raw JSON
// document embedded in it. URLs serving JSON directly are passed
// through unchanged.
func (c *Client) FetchProgramJSON(ctx context.Context, pageURL string) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, pageURL)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	body := string(bodyBytes)

	trimmed := strings.TrimSpace(body)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return trimmed, nil
	}

	if title, ok := getHTMLTitle(body); ok {
		utils.Log.Debugf("Fetched %s (%s)", pageURL, strings.TrimSpace(title))
	}

	return ExtractEmbeddedJSON(body)
}

// ExtractEmbeddedJSON pulls the requirement document out of a program
// page's __NEXT_DATA__ script tag.
func ExtractEmbeddedJSON(body string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %v", err)
	}

	var blob string
	doc.Find("#__NEXT_DATA__").Each(func(index int, s *goquery.Selection) {
		if blob == "" {
			blob = s.Contents().Text()
		}
	})
	if strings.TrimSpace(blob) == "" {
		return "", ErrNoDocument
	}

	// The page props carry the document under a few historical keys.
	props := gjson.Get(blob, "props.pageProps")
	if !props.Exists() {
		return "", ErrNoDocument
	}
	for _, key := range []string{"degree", "data", "document"} {
		if inner := props.Get(key); inner.Exists() {
			return inner.Raw, nil
		}
	}
	return props.Raw, nil
}

func isTitleElement(n *html.Node) bool {
	return n.Type == html.ElementNode && n.Data == "title"
}

func traverse(n *html.Node) (string, bool) {
	if isTitleElement(n) {
		if n.FirstChild != nil {
			return n.FirstChild.Data, true
		}
		return "", true
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		result, ok := traverse(c)
		if ok {
			return result, ok
		}
	}

	return "", false
}

func getHTMLTitle(requestBody string) (string, bool) {
	doc, err := html.Parse(strings.NewReader(requestBody))
	if err != nil {
		return "", false
	}
	return traverse(doc)
}
