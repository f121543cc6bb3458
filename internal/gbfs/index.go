// Package gbfs reads General Bikeshare Feed Specification documents.
package gbfs

import (
	"bytes"
	"encoding/json"
	"fmt"

	"bike-dash/internal/domain"
)

// Feed is one entry of a feed index.
type Feed struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// FeedIndex is the feed list of the selected language group. Language is
// empty for indexes without language groups (GBFS 3.0).
type FeedIndex struct {
	Language  string
	Languages []string
	Feeds     []Feed
}

// member is one key/value pair of a JSON object, in document order.
type member struct {
	key   string
	value json.RawMessage
}

// ParseIndex decodes a gbfs.json document. The language group named by
// locale is used when present; otherwise the first group in document order.
// Structural problems are reported as domain.ErrMalformedIndex.
func ParseIndex(data []byte, locale string) (*FeedIndex, error) {
	var doc struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedIndex, err)
	}
	if len(doc.Data) == 0 || bytes.Equal(doc.Data, []byte("null")) {
		return nil, fmt.Errorf("%w: missing \"data\" object", domain.ErrMalformedIndex)
	}

	members, err := objectMembers(doc.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: data: %v", domain.ErrMalformedIndex, err)
	}

	for _, m := range members {
		if m.key == "feeds" {
			feeds, err := decodeFeeds(m.value)
			if err != nil {
				return nil, err
			}
			return &FeedIndex{Feeds: feeds}, nil
		}
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: no language groups", domain.ErrMalformedIndex)
	}

	chosen := members[0]
	languages := make([]string, len(members))
	for i, m := range members {
		languages[i] = m.key
		if locale != "" && m.key == locale {
			chosen = m
		}
	}

	var group struct {
		Feeds json.RawMessage `json:"feeds"`
	}
	if err := json.Unmarshal(chosen.value, &group); err != nil {
		return nil, fmt.Errorf("%w: language %q: %v", domain.ErrMalformedIndex, chosen.key, err)
	}
	feeds, err := decodeFeeds(group.Feeds)
	if err != nil {
		return nil, err
	}
	return &FeedIndex{Language: chosen.key, Languages: languages, Feeds: feeds}, nil
}

func decodeFeeds(raw json.RawMessage) ([]Feed, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("%w: missing \"feeds\" list", domain.ErrMalformedIndex)
	}
	var feeds []Feed
	if err := json.Unmarshal(raw, &feeds); err != nil {
		return nil, fmt.Errorf("%w: feeds: %v", domain.ErrMalformedIndex, err)
	}
	return feeds, nil
}

// FeedURL returns the URL of the feed with exactly the given name, or an
// error wrapping domain.ErrFeedNotFound.
func (ix *FeedIndex) FeedURL(name string) (string, error) {
	for _, f := range ix.Feeds {
		if f.Name == name {
			if f.URL == "" {
				return "", fmt.Errorf("%w: %q has no url", domain.ErrFeedNotFound, name)
			}
			return f.URL, nil
		}
	}
	return "", fmt.Errorf("%w: %q", domain.ErrFeedNotFound, name)
}

// objectMembers splits a JSON object into its members in document order.
func objectMembers(raw json.RawMessage) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var members []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("member %q: %w", key, err)
		}
		members = append(members, member{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return members, nil
}
