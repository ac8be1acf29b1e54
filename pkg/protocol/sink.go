package protocol

import "context"

// DataSink is the content store pipelines write their results into. The engine
// treats it as an opaque key/value store.
type DataSink interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}
