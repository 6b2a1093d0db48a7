package adapters

import (
	"io"
	"net/http"

	"github.com/tbui88/pdf-tts/application/ports/outbound"
)

// FetchedContent is one HTTP response, fully read. Callers classify
// non-2xx statuses themselves.
type FetchedContent struct {
	Body        []byte
	StatusCode  int
	ContentType string
}

type ContentFetcher interface {
	FetchContent(req *http.Request) (*FetchedContent, error)
}

type contentFetcher struct {
	client *http.Client
	logger outbound.LoggerPort
}

func NewContentFetcher(logger outbound.LoggerPort) ContentFetcher {
	return &contentFetcher{
		client: &http.Client{},
		logger: logger,
	}
}

func (c *contentFetcher) FetchContent(req *http.Request) (*FetchedContent, error) {
	res, err := c.client.Do(req)
	if err != nil {
		c.logger.ErrorWithFields(err, "HTTP request failed", map[string]interface{}{
			"method": req.Method,
			"url":    req.URL.String(),
		})
		return nil, err
	}
	defer func() {
		if closeErr := res.Body.Close(); closeErr != nil {
			c.logger.Error(closeErr, "failed to close response body")
		}
	}()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		c.logger.ErrorWithFields(err, "failed to read response body", map[string]interface{}{
			"method": req.Method,
			"url":    req.URL.String(),
			"status": res.StatusCode,
		})
		return nil, err
	}

	return &FetchedContent{
		Body:        body,
		StatusCode:  res.StatusCode,
		ContentType: res.Header.Get("Content-Type"),
	}, nil
}
