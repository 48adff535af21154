package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/olivere/elastic/v7"
)

// defaultScrollSize is the per-batch hit count for the scroll cursor.
const defaultScrollSize = 500

// ElasticSource streams the hits of an Elasticsearch query as map records
// using a scroll cursor, so result sets larger than a single page export
// without buffering.
type ElasticSource struct {
	scroll *elastic.ScrollService
	batch  []map[string]interface{}
	pos    int
	done   bool
}

// NewElasticSource prepares a scrolling search over index. query may be nil
// to export the whole index.
func NewElasticSource(client *elastic.Client, index string, query elastic.Query) *ElasticSource {
	scroll := client.Scroll(index).Size(defaultScrollSize)
	if query != nil {
		scroll = scroll.Query(query)
	}
	return &ElasticSource{scroll: scroll}
}

// Next yields the next hit, fetching a new scroll batch when the current one
// is exhausted.
func (s *ElasticSource) Next(ctx context.Context) (interface{}, bool, error) {
	for s.pos >= len(s.batch) {
		if s.done {
			return nil, false, nil
		}
		res, err := s.scroll.Do(ctx)
		if errors.Is(err, io.EOF) {
			s.done = true
			return nil, false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("scrolling search results: %w", err)
		}
		s.batch = s.batch[:0]
		s.pos = 0
		for _, hit := range res.Hits.Hits {
			rec, err := hitToRecord(hit.Source)
			if err != nil {
				return nil, false, err
			}
			s.batch = append(s.batch, rec)
		}
	}
	rec := s.batch[s.pos]
	s.pos++
	return rec, true, nil
}

// hitToRecord decodes one hit document into a map record. Numbers decode as
// json.Number so integer identifiers are not flattened to floats before the
// coercer sees them.
func hitToRecord(raw json.RawMessage) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var rec map[string]interface{}
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("decoding search hit: %w", err)
	}
	return rec, nil
}
