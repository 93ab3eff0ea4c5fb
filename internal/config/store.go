package config

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownBackend    = errors.New("unknown store backend")
	ErrUnknownCollection = errors.New("unknown collection")
)

// Backend selects where categories, documents, and assignments live.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendMongo    Backend = "mongo"
)

// ParseBackend validates a backend name.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(s); b {
	case BackendPostgres, BackendMongo:
		return b, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
	}
}

// Collection names a corpus of documents that share a category set.
type Collection string

const CollectionTweets Collection = "tweets"

var collections = []Collection{CollectionTweets}

// ParseCollection validates a collection name.
func ParseCollection(s string) (Collection, error) {
	for _, c := range collections {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCollection, s)
}

// Collections returns every known collection name, default first.
func Collections() []string {
	names := make([]string, len(collections))
	for i, c := range collections {
		names[i] = string(c)
	}
	return names
}
