package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/mmcdole/gofeed"

	"github.com/xianfeixu/news-scraper-automation/internal/config"
	"github.com/xianfeixu/news-scraper-automation/internal/logger"
	"github.com/xianfeixu/news-scraper-automation/internal/source"
)

const (
	fetchTimeout         = 10 * time.Second
	defaultGoogleNewsRSS = "https://news.google.com/rss"
)

// candidate 枚举出的一个待提取 URL，feed 条目会附带标题/时间做兜底。
type candidate struct {
	URL       string
	Title     string
	Published *time.Time
}

// Collector 驱动单个源的一轮采集：枚举候选 URL，逐个提取正文。
type Collector struct {
	extractor Extractor
	client    *http.Client
	parser    *gofeed.Parser

	feedLimit     int
	homepageLimit int

	gnLang    string
	gnCountry string
	gnBase    string // 测试时指向 httptest server
}

func New(cfg *config.Config, ext Extractor) *Collector {
	return &Collector{
		extractor:     ext,
		client:        &http.Client{Timeout: fetchTimeout},
		parser:        gofeed.NewParser(),
		feedLimit:     cfg.FeedLimit,
		homepageLimit: cfg.HomepageLimit,
		gnLang:        cfg.GNLang,
		gnCountry:     cfg.GNCountry,
		gnBase:        defaultGoogleNewsRSS,
	}
}

// Collect 采集一个源并返回批次。任何失败都被隔离进 Batch.Failures，
// 不向调用方抛错，保证对其余源的循环继续。
func (c *Collector) Collect(ctx context.Context, desc source.Descriptor) Batch {
	batch := Batch{Source: desc.ID, CollectedAt: time.Now()}

	var (
		cands []candidate
		err   error
	)
	switch {
	case desc.Topic != "":
		cands, err = c.enumerateTopic(ctx, desc.Topic)
	case desc.FeedURL != "":
		// feed 失败就是该源本轮的硬性空结果，不回退到首页枚举，
		// 否则 feed 故障会被悄悄换成另一种来源的数据
		cands, err = c.enumerateFeed(ctx, desc.FeedURL, c.feedLimit)
	case desc.Homepage != "":
		cands, err = c.enumerateHomepage(desc.Homepage, c.homepageLimit)
	default:
		err = fmt.Errorf("source %s has no feed, homepage or topic", desc.ID)
	}
	if err != nil {
		logger.Warnw("source unavailable", "source", desc.ID, "reason", err.Error())
		batch.Failures = append(batch.Failures, Failure{Source: desc.ID, Reason: err.Error()})
		return batch
	}

	for _, cand := range cands {
		art, err := c.extractor.Extract(ctx, cand.URL)
		if err != nil {
			// 单篇失败只记录并跳过，不中断整批
			logger.Warnw("article extraction failed",
				"source", desc.ID, "url", cand.URL, "reason", err.Error())
			batch.Failures = append(batch.Failures, Failure{
				Source: desc.ID, URL: cand.URL, Reason: err.Error(),
			})
			continue
		}

		// feed 条目自带的元数据兜底提取不到的字段
		if art.Title == "" {
			art.Title = cand.Title
		}
		if art.PublishedAt == nil {
			art.PublishedAt = cand.Published
		}
		art.Source = desc.ID
		art.URL = cand.URL
		batch.Articles = append(batch.Articles, art)
	}

	logger.Infow("source collected", "source", desc.ID,
		"articles", len(batch.Articles), "failures", len(batch.Failures))
	return batch
}

// enumerateFeed 拉取并解析 RSS/Atom，最多返回 limit 条。
func (c *Collector) enumerateFeed(ctx context.Context, feedURL string, limit int) ([]candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	feed, err := c.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	cands := make([]candidate, 0, limit)
	for _, item := range feed.Items {
		if len(cands) >= limit {
			break
		}
		if item.Link == "" {
			continue
		}
		published := item.PublishedParsed
		if published == nil {
			published = item.UpdatedParsed
		}
		cands = append(cands, candidate{
			URL:       item.Link,
			Title:     strings.TrimSpace(item.Title),
			Published: published,
		})
	}
	return cands, nil
}

// enumerateTopic 聚合源：按主题构造 Google News 的 RSS 地址后走 feed 路径。
func (c *Collector) enumerateTopic(ctx context.Context, topic string) ([]candidate, error) {
	feedURL := c.gnBase
	if topic != "top" {
		feedURL += "/headlines/section/topic/" + strings.ToUpper(topic)
	}
	feedURL += fmt.Sprintf("?hl=%s&gl=%s&ceid=%s:%s",
		url.QueryEscape(c.gnLang), url.QueryEscape(c.gnCountry),
		url.QueryEscape(c.gnCountry), url.QueryEscape(c.gnLang))
	return c.enumerateFeed(ctx, feedURL, c.feedLimit)
}

// enumerateHomepage 从首页发现同站外链，用于没有 feed 的源。
func (c *Collector) enumerateHomepage(page string, limit int) ([]candidate, error) {
	base, err := url.Parse(page)
	if err != nil {
		return nil, fmt.Errorf("parse homepage url: %w", err)
	}

	co := colly.NewCollector(colly.UserAgent(userAgent))
	co.SetRequestTimeout(fetchTimeout)

	seen := make(map[string]struct{})
	cands := make([]candidate, 0, limit)

	co.OnHTML("a[href]", func(e *colly.HTMLElement) {
		if len(cands) >= limit {
			return
		}
		href := e.Request.AbsoluteURL(e.Attr("href"))
		if href == "" {
			return
		}
		u, err := url.Parse(href)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return
		}
		// 只收同站、非首页本身的链接；页内去重
		if u.Host != base.Host || u.Path == "" || u.Path == "/" {
			return
		}
		u.Fragment = ""
		link := u.String()
		if _, ok := seen[link]; ok {
			return
		}
		seen[link] = struct{}{}
		cands = append(cands, candidate{URL: link})
	})

	if err := co.Visit(page); err != nil {
		return nil, err
	}
	return cands, nil
}
