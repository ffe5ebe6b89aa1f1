package minioctrl

import (
	"context"
	"fmt"
)

type objectStore interface {
	ObjectETag(ctx context.Context, bucketName, objectName string) (string, error)
	GetObject(ctx context.Context, bucketName, objectName string) ([]byte, error)
}

// ObjectSource serves the document from an object in a bucket. Its fingerprint is the object ETag.
type ObjectSource struct {
	store  objectStore
	bucket string
	object string
}

func NewObjectSource(store objectStore, bucket, object string) *ObjectSource {
	return &ObjectSource{store: store, bucket: bucket, object: object}
}

func (s *ObjectSource) Name() string {
	return s.object
}

func (s *ObjectSource) Fingerprint(ctx context.Context) (string, error) {
	etag, err := s.store.ObjectETag(ctx, s.bucket, s.object)
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint %s/%s: %w", s.bucket, s.object, err)
	}
	if etag == "" {
		return "", fmt.Errorf("object %s/%s has no etag", s.bucket, s.object)
	}
	return etag, nil
}

func (s *ObjectSource) Load(ctx context.Context) ([]byte, error) {
	data, err := s.store.GetObject(ctx, s.bucket, s.object)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s/%s: %w", s.bucket, s.object, err)
	}
	return data, nil
}
