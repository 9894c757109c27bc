package gallery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// DefaultMaxPageSize bounds the HTML read by FromHTML.
const DefaultMaxPageSize = 5 * 1024 * 1024

// Parser collects photos from an HTML document.
//
// Photos are <img> elements (src, or the largest srcset candidate when src
// is empty), <a href> links pointing at image files, and og:image meta
// tags. A data-photo-id attribute on the element becomes the photo id.
type Parser struct {
	baseURL *url.URL
}

// ParseResult holds what Parse found.
type ParseResult struct {
	Title  string
	Images []Item
}

// NewParser creates a parser that resolves relative URLs against baseURL.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// Parse walks the document and returns its photos in document order,
// without duplicates.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{Images: make([]Item, 0)}
	seen := make(map[string]bool)
	add := func(src, photoID string) {
		resolved := p.resolveURL(src)
		if resolved == "" || seen[resolved] {
			return
		}
		seen[resolved] = true
		result.Images = append(result.Images, Item{URL: resolved, PhotoID: photoID})
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if result.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					result.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "img":
				src := getAttr(n, "src")
				if src == "" {
					src = largestSrcset(getAttr(n, "srcset"))
				}
				add(src, getAttr(n, "data-photo-id"))
			case "a":
				if href := getAttr(n, "href"); IsImageFile(pathOf(href)) {
					add(href, getAttr(n, "data-photo-id"))
				}
			case "meta":
				if getAttr(n, "property") == "og:image" {
					add(getAttr(n, "content"), "")
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return result, nil
}

// resolveURL resolves href against the base URL. Inline and script URLs yield "".
func (p *Parser) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" ||
		strings.HasPrefix(href, "data:") ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := p.baseURL.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" && resolved.Scheme != "file" {
		return ""
	}
	return resolved.String()
}

// largestSrcset returns the candidate with the largest width or density
// descriptor of a srcset attribute.
func largestSrcset(srcset string) string {
	best, bestSize := "", -1.0
	for _, candidate := range strings.Split(srcset, ",") {
		fields := strings.Fields(candidate)
		if len(fields) == 0 {
			continue
		}
		size := 1.0
		if len(fields) > 1 {
			if v, err := strconv.ParseFloat(strings.TrimRight(fields[1], "wx"), 64); err == nil {
				size = v
			}
		}
		if size > bestSize {
			best, bestSize = fields[0], size
		}
	}
	return best
}

func pathOf(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return u.Path
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// FromHTML fetches pageURL with client and builds a manifest from its photos.
func FromHTML(ctx context.Context, client *http.Client, pageURL string, userAgent string) (*Manifest, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s for %s", ErrUnexpectedStatus, resp.Status, pageURL)
	}

	// Resolve against the final URL after redirects.
	parser, err := NewParser(resp.Request.URL.String())
	if err != nil {
		return nil, err
	}
	result, err := parser.Parse(io.LimitReader(resp.Body, DefaultMaxPageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}
	if len(result.Images) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyGallery, pageURL)
	}

	title := result.Title
	if title == "" {
		title = pageURL
	}
	return &Manifest{
		Title:  title,
		Images: result.Images,
		Source: pageURL,
	}, nil
}
