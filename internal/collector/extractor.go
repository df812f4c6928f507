package collector

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const (
	userAgent       = "NewsScraperBot/1.0"
	maxArticleBytes = 2 << 20 // 2MB，防止异常页面拖垮内存
	extractTimeout  = 15 * time.Second
)

// Extractor 把一个 URL 还原成文章正文。Source/URL 字段由调用方补齐。
type Extractor interface {
	Extract(ctx context.Context, pageURL string) (Article, error)
}

// ReadabilityExtractor 基于 go-readability 的正文提取实现。
type ReadabilityExtractor struct {
	client *http.Client
}

func NewReadabilityExtractor() *ReadabilityExtractor {
	return &ReadabilityExtractor{
		client: &http.Client{Timeout: extractTimeout},
	}
}

func (e *ReadabilityExtractor) Extract(ctx context.Context, pageURL string) (Article, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return Article{}, fmt.Errorf("parse url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Article{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return Article{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Article{}, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArticleBytes))
	if err != nil {
		return Article{}, err
	}

	art, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return Article{}, fmt.Errorf("extract article: %w", err)
	}

	title := strings.TrimSpace(art.Title)
	if title == "" {
		title = pageTitle(body)
	}

	return Article{
		Title:       title,
		Text:        strings.TrimSpace(art.TextContent),
		PublishedAt: art.PublishedTime,
		URL:         pageURL,
	}, nil
}

// pageTitle 正文提取不到标题时，退回 og:title 或 <title>。
func pageTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if og = strings.TrimSpace(og); og != "" {
			return og
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
