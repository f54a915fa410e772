// Package scrape fetches a web page and reduces it to readable text.
package scrape

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/bryanwahyu/clausecode/internal/domain/document"
)

const (
	DefaultTimeout      = 45 * time.Second
	DefaultMaxRedirects = 10
	// MinTextChars is the shortest extraction still considered a real page.
	MinTextChars = 100
	untitled     = "Untitled Page"
	userAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var (
	errTooManyRedirects = errors.New("too many redirects")
	errInternalAddress  = errors.New("internal address")
)

// Scraper is safe for concurrent use.
type Scraper struct {
	http    *http.Client
	timeout time.Duration
}

// New returns a scraper with the given timeout and redirect limit; zero values use the defaults.
func New(timeout time.Duration, maxRedirects int) *Scraper {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// a proxy would dial on our behalf and skip the address check
	transport.Proxy = nil
	transport.DialContext = dialPublic(&net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second})

	return &Scraper{timeout: timeout, http: &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return errTooManyRedirects
			}
			// redirects may stay on the host that was asked for, never move inside the network
			if req.URL.Host != via[0].URL.Host && internalHost(req.URL.Hostname()) {
				return fmt.Errorf("redirect to %s: %w", req.URL.Host, errInternalAddress)
			}
			return nil
		},
	}}
}

// internalAddr reports addresses a scrape must never reach.
func internalAddr(ip netip.Addr) bool {
	ip = ip.Unmap()
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsMulticast()
}

func internalHost(host string) bool {
	host = strings.ToLower(host)
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip, err := netip.ParseAddr(host)
	return err == nil && internalAddr(ip)
}

// dialPublic resolves host names itself and refuses names pointing inside the network.
// Literal addresses are dialed as is: the first URL is validated by the caller and redirects
// by CheckRedirect.
func dialPublic(d *net.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		if _, err := netip.ParseAddr(host); err == nil {
			return d.DialContext(ctx, network, addr)
		}
		ips, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
		if err != nil {
			return nil, err
		}
		for _, ip := range ips {
			if internalAddr(ip) {
				return nil, fmt.Errorf("%s resolves to %s: %w", host, ip, errInternalAddress)
			}
		}
		lastErr := error(&net.DNSError{Err: "no such host", Name: host, IsNotFound: true})
		for _, ip := range ips {
			conn, err := d.DialContext(ctx, network, net.JoinHostPort(ip.Unmap().String(), port))
			if err == nil {
				return conn, nil
			}
			lastErr = err
		}
		return nil, lastErr
	}
}

// Scrape fetches pageURL, which must already be absolute, and extracts its text and title.
// Every failure is a *document.FetchError.
func (s *Scraper) Scrape(ctx context.Context, pageURL string) (document.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return document.Document{}, fetchErr("Invalid URL format. Please enter a valid website address (e.g., example.com or https://example.com)", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Cache-Control", "max-age=0")

	resp, err := s.http.Do(req)
	if err != nil {
		return document.Document{}, s.transportError(err)
	}
	defer resp.Body.Close()

	if err := statusError(resp.StatusCode); err != nil {
		return document.Document{}, err
	}
	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(strings.ToLower(contentType), "application/json") {
		return document.Document{}, fetchErr("This URL returns JSON data instead of a webpage. Please use a regular webpage URL.", nil)
	}

	body, err := charset.NewReader(resp.Body, contentType)
	if err != nil {
		return document.Document{}, fetchErr(parseFailure, err)
	}
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return document.Document{}, fetchErr(parseFailure, err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = untitled
	}
	text := Readable(doc)
	if len([]rune(text)) < MinTextChars {
		return document.Document{}, fetchErr("Could not extract meaningful text from this page. The website may use JavaScript to load content dynamically, or may be blocking automated access. Please try copying and pasting the text manually instead.", nil)
	}

	return document.Document{
		Text:   text,
		Title:  title,
		URL:    resp.Request.URL.String(),
		Source: document.SourceScrape,
	}, nil
}

const parseFailure = "Could not parse the webpage content. The page may be using dynamic JavaScript that requires a browser to view."

var (
	blankLines = regexp.MustCompile(`\n\s*\n`)
	spaces     = regexp.MustCompile(` +`)
)

// Readable strips non-content elements and returns the text of the main content container
// (main, then article, then body) with whitespace collapsed.
func Readable(doc *goquery.Document) string {
	doc.Find("script, style, noscript, iframe, template").Remove()

	var best string
	for _, sel := range []string{"main", "article", "body"} {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		best = collapse(textOf(node))
		if len([]rune(best)) >= MinTextChars {
			return best
		}
	}
	if best == "" {
		best = collapse(textOf(doc.Selection))
	}
	return best
}

func collapse(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = blankLines.ReplaceAllString(s, "\n\n")
	s = spaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true, "header": true,
	"footer": true, "nav": true, "aside": true, "li": true, "ul": true, "ol": true, "table": true,
	"tr": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "br": true, "hr": true, "dd": true, "dt": true,
}

// textOf walks the tree so block elements end up on their own lines.
func textOf(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.CommentNode:
			return
		}
		block := n.Type == html.ElementNode && blockTags[n.Data]
		if block {
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteByte('\n')
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return b.String()
}

func statusError(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusForbidden:
		return fetchErr("Access forbidden: This website is blocking automated access. Please try copying and pasting the text content manually instead.", nil)
	case code == http.StatusNotFound:
		return fetchErr("Page not found (404). Please check the URL and try again.", nil)
	case code == http.StatusTooManyRequests:
		return fetchErr("Rate limited: The website is blocking too many requests. Please wait a moment and try again.", nil)
	case code >= 500:
		return fetchErr(fmt.Sprintf("The website is experiencing server errors (HTTP %d). Please try again later.", code), nil)
	}
	return fetchErr(fmt.Sprintf("Failed to fetch URL: HTTP %d. The website may be blocking automated access.", code), nil)
}

func (s *Scraper) transportError(err error) error {
	var (
		netErr  net.Error
		opErr   *net.OpError
		dnsErr  *net.DNSError
		certErr *tls.CertificateVerificationError
	)
	switch {
	case errors.Is(err, errInternalAddress):
		return fetchErr("This address leads to localhost/internal IPs, which are not allowed.", err)
	case errors.Is(err, errTooManyRedirects):
		return fetchErr("Too many redirects. The website may be misconfigured or blocking automated access.", err)
	case errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()):
		return fetchErr(fmt.Sprintf("The website took too long to respond (timeout after %d seconds). The site may be slow or blocking automated access.", int(s.timeout.Seconds())), err)
	case errors.As(err, &certErr) || strings.Contains(strings.ToLower(err.Error()), "certificate"):
		return fetchErr("SSL certificate error. The website may have security issues or be blocking automated access.", err)
	case errors.As(err, &dnsErr) || (errors.As(err, &opErr) && opErr.Op == "dial"):
		return fetchErr("Could not connect to the website. Please check the URL and try again.", err)
	}
	return fetchErr(fmt.Sprintf("Failed to fetch URL: %v. The website may be blocking automated access or temporarily unavailable.", err), err)
}

func fetchErr(msg string, err error) error {
	return &document.FetchError{Message: msg, Err: err}
}
