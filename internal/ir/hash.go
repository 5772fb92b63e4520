package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainQuery = "cqdecomp/query/v1"
	DomainRule  = "cqdecomp/rule/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// QueryFingerprint identifies a query by structure. The name is excluded so
// the same pattern saved under two names shares a fingerprint.
func QueryFingerprint(q *Query) (string, error) {
	edges := make([]any, len(q.Edges))
	for i, e := range q.Edges {
		edges[i] = map[string]any{
			"source": e.Source,
			"label":  e.Label,
			"target": e.Target,
		}
	}
	free := make([]any, len(q.FreeVariables))
	for i, v := range q.FreeVariables {
		free[i] = v
	}

	canonical, err := MarshalCanonical(map[string]any{
		"edges": edges,
		"free":  free,
	})
	if err != nil {
		return "", fmt.Errorf("QueryFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainQuery, canonical), nil
}

// RuleFingerprint identifies a rule by its canonical expression text, the
// edges it covers, and its endpoints.
func RuleFingerprint(expr string, edges EdgeSet, source, target VertexID) (string, error) {
	ordinals := edges.Ordinals()
	items := make([]any, len(ordinals))
	for i, o := range ordinals {
		items[i] = o
	}

	canonical, err := MarshalCanonical(map[string]any{
		"expr":   expr,
		"edges":  items,
		"source": source,
		"target": target,
	})
	if err != nil {
		return "", fmt.Errorf("RuleFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRule, canonical), nil
}
