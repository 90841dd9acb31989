package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/jason0860907/tipomirror/pkg/logging"
	"github.com/jason0860907/tipomirror/pkg/models"
)

// HTMLSource scrapes ftps:// anchors out of an HTML document. The
// document is either a local file or an http(s) URL; anchors are
// returned in document order.
type HTMLSource struct {
	location string
	logger   logging.Logger
	client   *http.Client
}

// NewHTMLSource creates a source backed by an HTML page
func NewHTMLSource(location string, logger logging.Logger) *HTMLSource {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &HTMLSource{
		location: location,
		logger:   logger,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Locators returns the locators scraped from the page in document order
func (s *HTMLSource) Locators(ctx context.Context) ([]*models.Locator, error) {
	reader, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	links, err := ExtractFTPSLinks(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	var locators []*models.Locator
	for _, link := range links {
		locator, err := models.ParseLocator(link)
		if err != nil {
			s.logger.Warn(ctx, "skipping unparseable anchor", logging.Fields{
				"page": s.location,
				"link": link,
			})
			continue
		}
		locators = append(locators, locator)
	}
	return locators, nil
}

func (s *HTMLSource) open(ctx context.Context) (io.ReadCloser, error) {
	if strings.HasPrefix(s.location, "http://") || strings.HasPrefix(s.location, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.location, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build page request: %w", err)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to fetch page: status %d", resp.StatusCode)
		}
		return resp.Body, nil
	}

	file, err := os.Open(s.location)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	return file, nil
}

// Name identifies the source for logging
func (s *HTMLSource) Name() string {
	return "page:" + s.location
}

// ExtractFTPSLinks walks an HTML document and returns the href of
// every anchor whose target uses the ftps scheme, in document order.
func ExtractFTPSLinks(reader io.Reader) ([]string, error) {
	doc, err := html.Parse(reader)
	if err != nil {
		return nil, err
	}

	var links []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == "a" {
			for _, attr := range node.Attr {
				if attr.Key != "href" {
					continue
				}
				href := strings.TrimSpace(attr.Val)
				if strings.HasPrefix(strings.ToLower(href), "ftps://") {
					links = append(links, href)
				}
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return links, nil
}
