package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

var ErrClosed = errors.New("search engine closed")

// 文档类型
const (
	KindVoice  = "voice"
	KindOutput = "output"
)

// Doc 可被检索的文档：声音名称或转写/合成文本
type Doc struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	UserID    uint      `json:"userId"`
	Public    bool      `json:"public"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Hit 一条命中结果
type Hit struct {
	ID    string  `json:"id"`
	Kind  string  `json:"kind"`
	Score float64 `json:"score"`
}

// Engine 基于 bleve 的全文索引
type Engine struct {
	mu     sync.RWMutex
	index  bleve.Index
	closed bool
}

// Open 打开或创建索引，path 为空时用内存索引
func Open(path string) (*Engine, error) {
	var index bleve.Index
	var err error
	if path == "" {
		index, err = bleve.NewMemOnly(buildMapping())
	} else {
		index, err = bleve.Open(path)
		if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
			index, err = bleve.New(path, buildMapping())
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open search index: %w", err)
	}
	return &Engine{index: index}, nil
}

func buildMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	text := bleve.NewTextFieldMapping()
	docMapping.AddFieldMappingsAt("title", text)
	docMapping.AddFieldMappingsAt("text", text)

	keyword := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("kind", keyword)

	numeric := bleve.NewNumericFieldMapping()
	docMapping.AddFieldMappingsAt("userId", numeric)

	boolean := bleve.NewBooleanFieldMapping()
	docMapping.AddFieldMappingsAt("public", boolean)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = docMapping
	return m
}

// Index 写入或更新一条文档
func (e *Engine) Index(_ context.Context, doc Doc) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrClosed
	}
	return e.index.Index(doc.ID, doc)
}

// Delete 从索引移除文档
func (e *Engine) Delete(_ context.Context, id string) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrClosed
	}
	return e.index.Delete(id)
}

// Search 检索用户可见的文档：自己的，加上公共声音。
// limit<=0 时默认 10 条。
func (e *Engine) Search(_ context.Context, userID uint, query string, limit int) ([]Hit, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 10
	}

	match := bleve.NewMatchQuery(query)

	uid := float64(userID)
	inclusive := true
	owned := bleve.NewNumericRangeInclusiveQuery(&uid, &uid, &inclusive, &inclusive)
	owned.SetField("userId")

	public := bleve.NewBoolFieldQuery(true)
	public.SetField("public")

	visible := bleve.NewDisjunctionQuery(owned, public)
	full := bleve.NewConjunctionQuery(match, visible)

	req := bleve.NewSearchRequestOptions(full, limit, 0, false)
	req.Fields = []string{"kind"}
	res, err := e.index.Search(req)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		kind, _ := h.Fields["kind"].(string)
		hits = append(hits, Hit{ID: h.ID, Kind: kind, Score: h.Score})
	}
	return hits, nil
}

// Close 关闭索引，后续调用返回 ErrClosed
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.index.Close()
}
