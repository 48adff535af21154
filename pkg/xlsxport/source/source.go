// Package source adapts external data backends (SQL databases,
// Elasticsearch, Google Cloud Datastore) to the streaming Iterator the
// export engine consumes, so large result sets never need to be buffered in
// memory.
//
// Backends that report a stable column order expose it via Columns; pass
// that to xlsxport.WithColumns to pin the header, since map-shaped records
// alone carry no order.
package source
