// Package fingerprint derives the deterministic identity of a node
// invocation, used as the memoization cache key.
//
// A key is a SHA-256 hash over the runner type, the canonical encoding of
// the configuration record, and the upstream artifact fingerprints in
// declared-input order. All fields are length-prefixed to avoid ambiguity,
// and config keys are sorted, so the same invocation hashes identically
// across process restarts. The instance name is deliberately excluded:
// two nodes with identical runner, config, and upstreams share a key and
// deduplicate work.
package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// ForNode computes the cache key for one node invocation.
func ForNode(runnerType string, config map[string]cty.Value, upstream []string) (string, error) {
	h := sha256.New()

	writeField(h, []byte(runnerType))

	keys := make([]string, 0, len(config))
	for k := range config {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	writeCount(h, len(keys))
	for _, k := range keys {
		writeField(h, []byte(k))
		encoded, err := encodeValue(config[k])
		if err != nil {
			return "", fmt.Errorf("encoding config attribute %q: %w", k, err)
		}
		writeField(h, encoded)
	}

	// Upstream fingerprints stay in declared order: input order is part of
	// the invocation's identity.
	writeCount(h, len(upstream))
	for _, fp := range upstream {
		writeField(h, []byte(fp))
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// ForValue computes the content fingerprint of an external root value.
func ForValue(v cty.Value) (string, error) {
	encoded, err := encodeValue(v)
	if err != nil {
		return "", fmt.Errorf("encoding root value: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

// encodeValue produces a canonical byte encoding of a cty value: its type
// signature followed by its JSON serialization (cty object attributes
// iterate in sorted order, so the JSON is stable).
func encodeValue(v cty.Value) ([]byte, error) {
	ty := v.Type()
	typeBytes, err := ctyjson.MarshalType(ty)
	if err != nil {
		return nil, err
	}
	valBytes, err := ctyjson.Marshal(v, ty)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(typeBytes)+len(valBytes)+16)
	out = binary.BigEndian.AppendUint64(out, uint64(len(typeBytes)))
	out = append(out, typeBytes...)
	out = binary.BigEndian.AppendUint64(out, uint64(len(valBytes)))
	out = append(out, valBytes...)
	return out, nil
}

// writeField writes a length-prefixed field into the hash.
func writeField(h hash.Hash, data []byte) {
	var prefix [8]byte
	binary.BigEndian.PutUint64(prefix[:], uint64(len(data)))
	h.Write(prefix[:])
	h.Write(data)
}

// writeCount writes an element count into the hash.
func writeCount(h hash.Hash, n int) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(n))
	h.Write(buf[:])
}
