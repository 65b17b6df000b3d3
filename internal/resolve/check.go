package resolve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/citecheck/internal/model"
)

const (
	bailiiMinPageBytes   = 3000
	fclMinPageBytes      = 5000
	bailiiMinIndicators  = 3
	titleScanBytes       = 5000
	bailiiErrorScanBytes = 1000
	fclErrorScanBytes    = 2000
)

// BAILII answers unknown cases with a normal 200 page carrying one of these
var bailiiErrorPhrases = []string{
	"page not found",
	"error 404",
	"no case found",
	"citation not found",
	"this page does not exist",
}

var legalIndicators = []string{
	"judgment", "court", "justice", "appeal", "claimant", "defendant",
	"respondent", "appellant", "held", "ordered", "lordship", "honour",
	"tribunal",
}

// CheckURL fetches rawURL and decides whether it holds a real judgment
func (c *Client) CheckURL(ctx context.Context, rawURL string) (model.URLCheckResult, error) {
	result := model.URLCheckResult{URL: rawURL}

	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		if errors.Is(err, ErrDomainNotAllowed) {
			result.StatusCode = http.StatusForbidden
		}
		return result, err
	}

	result.StatusCode = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		return result, nil
	}

	if !hasJudgmentContent(c.SourceFor(rawURL), rawURL, resp.Body) {
		result.StatusCode = http.StatusNotFound
		return result, nil
	}

	result.Exists = true
	result.Title = model.StringPtr(extractTitle(resp.Body))
	return result, nil
}

// CheckURLs checks each URL in order. Failed requests are reported in the
// result rather than aborting the run.
func (c *Client) CheckURLs(ctx context.Context, urls []string) ([]model.URLCheckResult, error) {
	results := make([]model.URLCheckResult, 0, len(urls))
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, _ := c.CheckURL(ctx, u)
		results = append(results, result)
	}
	return results, nil
}

// FetchJudgment downloads a judgment page from an allowlisted source
func (c *Client) FetchJudgment(ctx context.Context, rawURL string) (*model.FetchedJudgment, error) {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch judgment: %w", err)
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = "text/html"
	}

	return &model.FetchedJudgment{
		URL:         rawURL,
		Title:       model.StringPtr(extractTitle(resp.Body)),
		ContentType: contentType,
		Content:     resp.Body,
		OK:          resp.OK(),
	}, nil
}

// hasJudgmentContent applies per-source checks to a 200 response body
func hasJudgmentContent(source, rawURL, body string) bool {
	lower := strings.ToLower(body)

	if source == model.SourceBailii && !isBailiiJudgment(body, lower) {
		return false
	}

	if strings.HasSuffix(urlPath(rawURL), ".xml") {
		return strings.Contains(lower, "<akomantoso") || strings.Contains(lower, "<frbrwork")
	}

	if source == model.SourceFindCaseLaw {
		if strings.Contains(prefix(lower, fclErrorScanBytes), "page not found") || len(body) < fclMinPageBytes {
			return false
		}
	}
	return true
}

func isBailiiJudgment(body, lower string) bool {
	head := prefix(lower, bailiiErrorScanBytes)
	for _, phrase := range bailiiErrorPhrases {
		if strings.Contains(head, phrase) {
			return false
		}
	}

	if len(body) < bailiiMinPageBytes {
		return false
	}

	found := 0
	for _, indicator := range legalIndicators {
		if strings.Contains(lower, indicator) {
			found++
		}
	}
	return found >= bailiiMinIndicators
}

// extractTitle returns the text of the first <title> element near the top of the page
func extractTitle(body string) string {
	z := html.NewTokenizer(strings.NewReader(prefix(body, titleScanBytes)))
	inTitle := false
	var b strings.Builder

	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			name, _ := z.TagName()
			if string(name) == "title" {
				inTitle = true
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if inTitle && string(name) == "title" {
				return strings.Join(strings.Fields(b.String()), " ")
			}
		case html.TextToken:
			if inTitle {
				b.Write(z.Text())
			}
		}
	}
}

func urlPath(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Path)
}

// prefix returns at most n leading bytes of s
func prefix(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
