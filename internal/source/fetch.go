package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrHTTPStatus 远端返回非 2xx
	ErrHTTPStatus = errors.New("unexpected http status")
	// ErrBodyTooLarge 远端内容超过读取上限
	ErrBodyTooLarge = errors.New("response body too large")
)

// 单个来源最大读取字节数
const maxBodyBytes = 64 << 20

// Fetcher 读取表格来源：http(s) URL 或本地路径
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewFetcher 创建读取器；timeout<=0 时使用 30 秒
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}, maxBytes: maxBodyBytes}
}

// NewFetcherWithClient 使用自定义 http.Client（测试用）
func NewFetcherWithClient(client *http.Client) *Fetcher {
	return &Fetcher{client: client, maxBytes: maxBodyBytes}
}

// IsURL 是否为远程地址
func IsURL(location string) bool {
	l := strings.ToLower(strings.TrimSpace(location))
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// Fetch 读取原始字节
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	location = strings.TrimSpace(location)
	if !IsURL(location) {
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", location, err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: %w: %d", location, ErrHTTPStatus, resp.StatusCode)
	}

	// 多读 1 字节用于判断是否超限，避免静默截断成半张表
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", location, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("fetch %s: %w: limit %d bytes", location, ErrBodyTooLarge, f.maxBytes)
	}
	return data, nil
}

// Load 读取并解析为表格列表；CSV 只有一张表，xlsx 每个 Sheet 一张
func (f *Fetcher) Load(ctx context.Context, location string) ([]*Table, error) {
	data, err := f.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	if IsWorkbook(data) || strings.EqualFold(filepath.Ext(location), ".xlsx") {
		return ParseWorkbook(data)
	}
	t, err := ParseCSV(baseName(location), data)
	if err != nil {
		return nil, err
	}
	return []*Table{t}, nil
}

func baseName(location string) string {
	if IsURL(location) {
		return "csv"
	}
	return strings.TrimSuffix(filepath.Base(location), filepath.Ext(location))
}
