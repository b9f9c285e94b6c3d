package social

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"omnipost/domain/model"

	"github.com/google/uuid"
)

// NormalizeProfile extracts the account identity from a profile response body.
// Missing fields never fail: the id falls back to a random UUID and the name to the shape's fallback.
func NormalizeProfile(shape ProfileShape, body []byte) (*model.ProviderIdentity, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: invalid profile response", model.ErrProfileFetchFailed)
	}

	envelope, ok := lookup(doc, shape.Envelope)
	if _, isObject := envelope.(map[string]interface{}); !ok || !isObject {
		name := genericAccountName
		if shape.AlwaysFallback && shape.FallbackName != "" {
			name = shape.FallbackName
		}
		return &model.ProviderIdentity{AccountID: uuid.NewString(), AccountName: name}, nil
	}

	id, _ := lookupString(envelope, shape.IDPath)

	parts := make([]string, 0, len(shape.NamePaths))
	for _, p := range shape.NamePaths {
		if s, ok := lookupString(envelope, p); ok {
			parts = append(parts, s)
		}
	}
	name := strings.TrimSpace(strings.Join(parts, " "))

	// AlwaysFallback shapes trust the envelope only when both fields are present.
	if shape.AlwaysFallback && (id == "" || name == "") {
		return &model.ProviderIdentity{AccountID: uuid.NewString(), AccountName: shape.FallbackName}, nil
	}
	if name == "" && shape.FallbackName == "" {
		return &model.ProviderIdentity{AccountID: uuid.NewString(), AccountName: genericAccountName}, nil
	}
	if id == "" {
		id = uuid.NewString()
	}
	if name == "" {
		name = shape.FallbackName
	}
	return &model.ProviderIdentity{AccountID: id, AccountName: name}, nil
}

func lookup(doc interface{}, path string) (interface{}, bool) {
	if path == "" {
		return doc, doc != nil
	}
	cur := doc
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]interface{}:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []interface{}:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, cur != nil
}

func lookupString(doc interface{}, path string) (string, bool) {
	v, ok := lookup(doc, path)
	if !ok {
		return "", false
	}
	switch s := v.(type) {
	case string:
		if s == "" {
			return "", false
		}
		return s, true
	case json.Number:
		return s.String(), true
	default:
		return "", false
	}
}
