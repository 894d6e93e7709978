// Package cache holds the key and payload encoding shared by cache repositories.
package cache

import (
	"encoding/json"
	"fmt"
)

func Key(prefix string, id fmt.Stringer) string {
	return prefix + ":" + id.String()
}

func Encode(data any) ([]byte, error) {
	res, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("cache.Encode: marshal: %w", err)
	}

	return res, nil
}

func Decode[T any](data []byte) (*T, error) {
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("cache.Decode: unmarshal: %w", err)
	}

	return &out, nil
}
