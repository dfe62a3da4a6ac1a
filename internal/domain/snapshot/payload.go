package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pratik-mahalle/creatorhub/internal/domain/content"
	"github.com/pratik-mahalle/creatorhub/internal/domain/user"
)

// PayloadSchema tags every snapshot document
const PayloadSchema = "creatorhub.snapshot"

// CurrentVersion is the payload version written by Encode
const CurrentVersion = 2

// Payload is the decoded snapshot document
type Payload struct {
	Schema     string                     `json:"schema"`
	Version    int                        `json:"version"`
	CapturedAt int64                      `json:"capturedAt"`
	User       user.Profile               `json:"user"`
	Posts      []*content.Post            `json:"posts"`
	Analytics  []*content.AnalyticsRecord `json:"analytics"`
}

// NewPayload builds a current-version payload
func NewPayload(capturedAt time.Time, profile user.Profile, posts []*content.Post, analytics []*content.AnalyticsRecord) *Payload {
	if posts == nil {
		posts = []*content.Post{}
	}
	if analytics == nil {
		analytics = []*content.AnalyticsRecord{}
	}
	return &Payload{
		Schema:     PayloadSchema,
		Version:    CurrentVersion,
		CapturedAt: capturedAt.Unix(),
		User:       profile,
		Posts:      posts,
		Analytics:  analytics,
	}
}

// PostIDs returns the ids of every post in the payload
func (p *Payload) PostIDs() []string {
	ids := make([]string, 0, len(p.Posts))
	for _, post := range p.Posts {
		ids = append(ids, post.ID)
	}
	return ids
}

// AnalyticsIDs returns the ids of every analytics record in the payload
func (p *Payload) AnalyticsIDs() []string {
	ids := make([]string, 0, len(p.Analytics))
	for _, rec := range p.Analytics {
		ids = append(ids, rec.ID)
	}
	return ids
}

// Encode serialises p as the current version
func Encode(p *Payload) ([]byte, error) {
	p.Schema = PayloadSchema
	p.Version = CurrentVersion
	return json.Marshal(p)
}

// upgrader rewrites a raw document of version N into version N+1
type upgrader func(doc map[string]json.RawMessage) error

var upgraders = map[int]upgrader{
	1: upgradeV1,
}

// Decode parses a stored document, upgrading older versions on read
func Decode(raw []byte) (*Payload, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("snapshot payload: %w", err)
	}

	var schema string
	if err := json.Unmarshal(doc["schema"], &schema); err != nil || schema != PayloadSchema {
		return nil, fmt.Errorf("snapshot payload: unexpected schema %q", schema)
	}

	var version int
	if err := json.Unmarshal(doc["version"], &version); err != nil {
		return nil, fmt.Errorf("snapshot payload: missing version: %w", err)
	}
	if version < 1 || version > CurrentVersion {
		return nil, fmt.Errorf("snapshot payload: unsupported version %d", version)
	}

	for v := version; v < CurrentVersion; v++ {
		up, ok := upgraders[v]
		if !ok {
			return nil, fmt.Errorf("snapshot payload: no upgrade from version %d", v)
		}
		if err := up(doc); err != nil {
			return nil, fmt.Errorf("snapshot payload: upgrade from version %d: %w", v, err)
		}
	}

	upgraded, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	var p Payload
	if err := json.Unmarshal(upgraded, &p); err != nil {
		return nil, fmt.Errorf("snapshot payload: %w", err)
	}
	p.Version = CurrentVersion
	if p.Posts == nil {
		p.Posts = []*content.Post{}
	}
	if p.Analytics == nil {
		p.Analytics = []*content.AnalyticsRecord{}
	}
	return &p, nil
}

// Version 1 documents kept the user fields at the top level
// ("subscriptionTier", "displayName", "avatarRef") and called the post list
// "contentItems".
func upgradeV1(doc map[string]json.RawMessage) error {
	profile := map[string]json.RawMessage{}
	for _, key := range []string{"subscriptionTier", "displayName", "avatarRef"} {
		if v, ok := doc[key]; ok {
			profile[key] = v
			delete(doc, key)
		}
	}
	rawProfile, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	doc["user"] = rawProfile

	if items, ok := doc["contentItems"]; ok {
		doc["posts"] = items
		delete(doc, "contentItems")
	}
	doc["version"] = json.RawMessage("2")
	return nil
}
