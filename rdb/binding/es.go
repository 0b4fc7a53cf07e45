package binding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/hatlonely/modelorm/rdb"
	"github.com/pkg/errors"
)

// ESOptions Elasticsearch 连接选项
type ESOptions struct {
	Addresses  []string      `cfg:"addresses" def:"http://localhost:9200"`
	Username   string        `cfg:"username"`
	Password   string        `cfg:"password"`
	APIKey     string        `cfg:"apiKey"`
	Timeout    time.Duration `cfg:"timeout" def:"30s"`
	MaxRetries int           `cfg:"maxRetries" def:"3"`
	// Refresh 写入后是否立即刷新
	Refresh bool `cfg:"refresh"`
}

// ES 每个表对应一个索引
type ES struct {
	*Registry
	client  *elasticsearch.Client
	refresh bool
}

func NewESWithOptions(options *ESOptions, opts ...Option) (*ES, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: options.Addresses,
		Username:  options.Username,
		Password:  options.Password,
		APIKey:    options.APIKey,
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: options.Timeout,
		},
		MaxRetries: options.MaxRetries,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create elasticsearch client")
	}

	res, err := client.Info()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to elasticsearch")
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, errors.Errorf("elasticsearch connection error: %s", res.String())
	}

	return &ES{
		Registry: NewRegistry(opts...),
		client:   client,
		refresh:  options.Refresh,
	}, nil
}

// Migrate 索引不存在时创建，存在时追加新字段的映射
func (es *ES) Migrate(ctx context.Context) error {
	for _, t := range es.List() {
		if err := es.migrate(ctx, t); err != nil {
			return errors.WithMessagef(err, "failed to migrate index %s", t.Table)
		}
		es.logger.InfoContext(ctx, "migrated table", "table", t.Table, "binding", "es")
	}
	return nil
}

func (es *ES) migrate(ctx context.Context, t *rdb.StorageType) error {
	mapping := IndexMapping(t)

	res, err := esapi.IndicesExistsRequest{Index: []string{t.Table}}.Do(ctx, es.client)
	if err != nil {
		return errors.Wrap(err, "failed to check index existence")
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusNotFound:
		return es.createIndex(ctx, t.Table, mapping)
	case http.StatusOK:
		return es.updateIndexMapping(ctx, t.Table, mapping)
	}
	return errors.Errorf("unexpected response status: %d", res.StatusCode)
}

// IndexMapping 存储类型对应的索引定义
func IndexMapping(t *rdb.StorageType) map[string]any {
	properties := make(map[string]any, len(t.Columns))
	for _, c := range t.Columns {
		properties[c.Name] = fieldMapping(c.Type)
	}
	return map[string]any{
		"settings": map[string]any{
			"number_of_shards":   1,
			"number_of_replicas": 0,
		},
		"mappings": map[string]any{
			"properties": properties,
		},
	}
}

func fieldMapping(t rdb.ColumnType) map[string]any {
	switch t {
	case rdb.Integer:
		return map[string]any{"type": "long"}
	case rdb.Float:
		return map[string]any{"type": "double"}
	case rdb.Timestamp:
		return map[string]any{"type": "date"}
	}
	return map[string]any{"type": "keyword"}
}

func (es *ES) createIndex(ctx context.Context, index string, mapping map[string]any) error {
	body, err := json.Marshal(mapping)
	if err != nil {
		return errors.Wrap(err, "failed to marshal mapping")
	}

	res, err := esapi.IndicesCreateRequest{Index: index, Body: bytes.NewReader(body)}.Do(ctx, es.client)
	if err != nil {
		return errors.Wrap(err, "failed to create index")
	}
	defer res.Body.Close()
	if res.IsError() {
		return errors.Errorf("failed to create index: %s", res.String())
	}
	return nil
}

// updateIndexMapping ES 只允许添加新字段，不能修改现有字段类型
func (es *ES) updateIndexMapping(ctx context.Context, index string, mapping map[string]any) error {
	body, err := json.Marshal(mapping["mappings"])
	if err != nil {
		return errors.Wrap(err, "failed to marshal mapping")
	}

	res, err := esapi.IndicesPutMappingRequest{Index: []string{index}, Body: bytes.NewReader(body)}.Do(ctx, es.client)
	if err != nil {
		return errors.Wrap(err, "failed to update mapping")
	}
	defer res.Body.Close()
	if res.IsError() {
		return errors.Errorf("failed to update mapping: %s", res.String())
	}
	return nil
}

// Insert 有主键时用主键值作为文档 ID
func (es *ES) Insert(ctx context.Context, record *rdb.Record) error {
	t, err := es.registered(record)
	if err != nil {
		return err
	}

	values := record.ColumnValues()
	body, err := json.Marshal(values)
	if err != nil {
		return errors.Wrap(err, "failed to marshal document")
	}

	req := esapi.IndexRequest{
		Index: t.Table,
		Body:  bytes.NewReader(body),
	}
	if pk := t.PrimaryKey(); pk != nil {
		if v, ok := values[pk.Name]; ok && v != nil {
			req.DocumentID = fmt.Sprint(v)
		}
	}
	if es.refresh {
		req.Refresh = "true"
	}

	res, err := req.Do(ctx, es.client)
	if err != nil {
		return errors.Wrapf(err, "failed to index document into %s", t.Table)
	}
	defer res.Body.Close()
	if res.IsError() {
		return errors.Errorf("failed to index document into %s: %s", t.Table, res.String())
	}
	return nil
}
