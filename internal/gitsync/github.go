package gitsync

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xianfeixu/news-scraper-automation/internal/logger"
)

const (
	defaultAPIBase   = "https://api.github.com"
	syncTimeout      = 30 * time.Second
	maxErrorBodySize = 4 << 10
)

// Result 一轮同步的结果。contents API 的每次 PUT 即提交即推送，
// 所以 Committed/Pushed 同真同假。
type Result struct {
	Committed bool
	Pushed    bool
	Uploaded  int
	Skipped   int
	Failed    int
}

// Client 通过 GitHub contents API 把数据目录推到远端仓库，
// 与原来的 REST 同步方式保持一致，不在本地管理 git 历史。
type Client struct {
	token   string
	repo    string // owner/name
	apiBase string // 测试时指向 httptest server
	client  *http.Client
}

func New(token, repo string) *Client {
	return &Client{
		token:   token,
		repo:    repo,
		apiBase: defaultAPIBase,
		client:  &http.Client{Timeout: syncTimeout},
	}
}

// Sync 遍历 root 下的 .json/.csv 文件并逐个上传。单个文件失败只计数，
// 整体失败（目录不存在等）才返回错误。
func (c *Client) Sync(ctx context.Context, root string) (Result, error) {
	var res Result

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return res, fmt.Errorf("data dir not found: %s", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".json" || ext == ".csv" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("walk data dir: %w", err)
	}
	sort.Strings(files)

	for _, path := range files {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return res, err
		}
		repoPath := filepath.ToSlash(filepath.Join(filepath.Base(root), rel))

		switch err := c.uploadFile(ctx, path, repoPath); {
		case err == errUnchanged:
			res.Skipped++
		case err != nil:
			logger.Warnw("upload failed", "path", repoPath, "reason", err.Error())
			res.Failed++
		default:
			res.Uploaded++
		}
	}

	res.Committed = res.Uploaded > 0
	res.Pushed = res.Uploaded > 0
	logger.Infow("sync done", "uploaded", res.Uploaded,
		"skipped", res.Skipped, "failed", res.Failed)
	return res, nil
}

var errUnchanged = errors.New("content unchanged")

// uploadFile 上传单个文件：先查远端 SHA 区分创建/更新；内容未变化时跳过。
func (c *Client) uploadFile(ctx context.Context, localPath, repoPath string) error {
	content, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}

	remoteSHA, err := c.remoteSHA(ctx, repoPath)
	if err != nil {
		return err
	}
	if remoteSHA != "" && remoteSHA == blobSHA(content) {
		return errUnchanged
	}

	body := map[string]string{
		"message": fmt.Sprintf("update %s - %s", repoPath, time.Now().Format("2006-01-02 15:04:05")),
		"content": base64.StdEncoding.EncodeToString(content),
	}
	if remoteSHA != "" {
		body["sha"] = remoteSHA
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := c.newRequest(ctx, http.MethodPut, repoPath, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// remoteSHA 查询远端文件的 blob SHA，不存在返回空串。
func (c *Client) remoteSHA(ctx context.Context, repoPath string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, repoPath, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var meta struct {
			SHA string `json:"sha"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
			return "", err
		}
		return meta.SHA, nil
	case http.StatusNotFound:
		return "", nil
	default:
		return "", fmt.Errorf("probe %s: HTTP %d", repoPath, resp.StatusCode)
	}
}

func (c *Client) newRequest(ctx context.Context, method, repoPath string, body io.Reader) (*http.Request, error) {
	url := fmt.Sprintf("%s/repos/%s/contents/%s", c.apiBase, c.repo, repoPath)
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	return req, nil
}

// blobSHA 计算 git blob 的 SHA1（"blob <len>\0"+内容），
// 与 contents API 返回的 sha 同一口径，用于跳过未变化的文件。
func blobSHA(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return fmt.Sprintf("%x", h.Sum(nil))
}
