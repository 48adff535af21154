package source

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/datastore"
	"google.golang.org/api/iterator"
)

// DatastoreSource streams the entities matched by a Datastore query as map
// records, one property per field.
type DatastoreSource struct {
	client *datastore.Client
	query  *datastore.Query
	it     *datastore.Iterator
}

// NewDatastoreSource prepares a query stream; the query runs lazily on the
// first Next call.
func NewDatastoreSource(client *datastore.Client, query *datastore.Query) *DatastoreSource {
	return &DatastoreSource{client: client, query: query}
}

// Next yields the next entity as a map record.
func (s *DatastoreSource) Next(ctx context.Context) (interface{}, bool, error) {
	if s.it == nil {
		s.it = s.client.Run(ctx, s.query)
	}
	var props datastore.PropertyList
	if _, err := s.it.Next(&props); err != nil {
		if errors.Is(err, iterator.Done) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading datastore entities: %w", err)
	}
	return propertiesToRecord(props), true, nil
}

// propertiesToRecord flattens an entity's property list. Nested entities are
// prefixed with their parent property name, matching how the export engine
// expects flat fields.
func propertiesToRecord(props datastore.PropertyList) map[string]interface{} {
	rec := make(map[string]interface{}, len(props))
	for _, p := range props {
		if nested, ok := p.Value.(*datastore.Entity); ok {
			for name, value := range propertiesToRecord(nested.Properties) {
				rec[p.Name+"."+name] = value
			}
			continue
		}
		rec[p.Name] = p.Value
	}
	return rec
}
