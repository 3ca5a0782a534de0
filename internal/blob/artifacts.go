package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"variantcore/pkg/domain"
)

// VariantPrefix is the default key prefix for generated record graphs.
const VariantPrefix = "variants"

// VariantSink writes generated record graphs as JSON objects keyed
// <prefix>/<session>/<variant>.json.
type VariantSink struct {
	store  Store
	prefix string
}

// NewVariantSink returns a sink writing under prefix; empty selects VariantPrefix.
func NewVariantSink(store Store, prefix string) *VariantSink {
	if prefix == "" {
		prefix = VariantPrefix
	}
	return &VariantSink{store: store, prefix: prefix}
}

// VariantKey returns the key a variant graph is stored under.
func (s *VariantSink) VariantKey(sessionID, variantID string) string {
	return path.Join(s.prefix, sessionID, variantID+".json")
}

// StoreVariant encodes records and stores them; the key is returned as the
// variant's output reference.
func (s *VariantSink) StoreVariant(ctx context.Context, sessionID, variantID string, records domain.RecordGraph) (string, error) {
	body, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode variant %s: %w", variantID, err)
	}
	key := s.VariantKey(sessionID, variantID)
	opts := PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"session": sessionID, "variant": variantID},
	}
	if _, err := s.store.Put(ctx, key, bytes.NewReader(body), opts); err != nil {
		return "", err
	}
	return key, nil
}

// LoadVariant reads a stored record graph back.
func (s *VariantSink) LoadVariant(ctx context.Context, key string) (domain.RecordGraph, error) {
	_, rc, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return domain.DecodeRecordGraph(buf.Bytes())
}
