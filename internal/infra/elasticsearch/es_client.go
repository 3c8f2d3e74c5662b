package elasticsearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vida-collector/internal/config"
	"vida-collector/pkg/logger"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

var client *elasticsearch.Client

// ErrNotInitialized 未启用 elasticsearch 或 Init 失败
var ErrNotInitialized = errors.New("elasticsearch client not initialized")

// Init 连接集群，search.driver 为 elasticsearch 时由 api 与 worker 调用
func Init(cfg *config.ElasticsearchConfig) error {
	hosts := normalizeHosts(cfg.Hosts)
	if len(hosts) == 0 {
		return errors.New("elasticsearch hosts is empty")
	}

	es, err := newClient(hosts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := es.Ping(es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return fmt.Errorf("ping elasticsearch: %s", resp.String())
	}

	client = es
	logger.Info("Elasticsearch connected", zap.Strings("hosts", hosts))
	return nil
}

// normalizeHosts 去空白并为裸地址补 http://
func normalizeHosts(raw []string) []string {
	hosts := make([]string, 0, len(raw))
	for _, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if !strings.HasPrefix(h, "http://") && !strings.HasPrefix(h, "https://") {
			h = "http://" + h
		}
		hosts = append(hosts, h)
	}
	return hosts
}

func newClient(hosts []string) (*elasticsearch.Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     hosts,
		RetryOnStatus: []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusTooManyRequests},
		MaxRetries:    3,
		RetryBackoff:  func(i int) time.Duration { return time.Duration(i) * time.Second },
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return es, nil
}

// ensureIndex 索引不存在时按 mapping 创建，返回是否新建
func ensureIndex(ctx context.Context, name string, mapping io.Reader) (bool, error) {
	if client == nil {
		return false, ErrNotInitialized
	}

	exists, err := client.Indices.Exists([]string{name}, client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", name, err)
	}
	exists.Body.Close()
	switch exists.StatusCode {
	case http.StatusOK:
		return false, nil
	case http.StatusNotFound:
	default:
		return false, fmt.Errorf("check index %s: %s", name, exists.String())
	}

	resp, err := client.Indices.Create(name,
		client.Indices.Create.WithContext(ctx),
		client.Indices.Create.WithBody(mapping),
	)
	if err != nil {
		return false, fmt.Errorf("create index %s: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return false, fmt.Errorf("create index %s: %s", name, resp.String())
	}
	return true, nil
}

func search(ctx context.Context, index string, body io.Reader) (*esapi.Response, error) {
	if client == nil {
		return nil, ErrNotInitialized
	}
	return client.Search(
		client.Search.WithContext(ctx),
		client.Search.WithIndex(index),
		client.Search.WithBody(body),
		client.Search.WithTrackTotalHits(true),
	)
}

func bulk(ctx context.Context, body io.Reader) (*esapi.Response, error) {
	if client == nil {
		return nil, ErrNotInitialized
	}
	return client.Bulk(body, client.Bulk.WithContext(ctx))
}

func Close() error {
	client = nil
	logger.Info("Elasticsearch client closed")
	return nil
}
