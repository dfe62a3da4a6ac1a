package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/creatorhub/internal/config"
	"github.com/pratik-mahalle/creatorhub/internal/domain/snapshot"
)

func testSnapshot() *snapshot.Snapshot {
	consumed := time.Unix(1700000100, 0)
	return &snapshot.Snapshot{
		ID:            "snap-1",
		UserID:        "user-1",
		SchemaVersion: snapshot.CurrentVersion,
		Payload:       []byte(`{"schema":"creatorhub.snapshot","version":2,"posts":[]}`),
		CapturedAt:    time.Unix(1700000000, 0),
		IsConsumed:    true,
		ConsumedAt:    &consumed,
	}
}

func TestObjectKey(t *testing.T) {
	snap := testSnapshot()
	assert.Equal(t, "user-1/snap-1.json", objectKey("", snap))
	assert.Equal(t, "archive/user-1/snap-1.json", objectKey("archive/", snap))
}

func TestEncodeDocumentEmbedsPayload(t *testing.T) {
	body, err := encodeDocument(testSnapshot())
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, "snap-1", doc["snapshotId"])
	payload, ok := doc["payload"].(map[string]interface{})
	require.True(t, ok, "payload should be embedded as an object")
	assert.Equal(t, "creatorhub.snapshot", payload["schema"])
}

func TestNewArchiver(t *testing.T) {
	a, err := NewArchiver(context.Background(), config.ArchiveConfig{Backend: BackendNone})
	require.NoError(t, err)
	assert.Nil(t, a)

	_, err = NewArchiver(context.Background(), config.ArchiveConfig{Backend: "ftp"})
	assert.Error(t, err)
}

func TestS3Archiver_Archive(t *testing.T) {
	var method, path string
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a, err := NewArchiver(context.Background(), config.ArchiveConfig{
		Backend:         BackendS3,
		Bucket:          "snapshots",
		Prefix:          "consumed",
		Region:          "us-east-1",
		Endpoint:        srv.URL,
		AccessKeyID:     "AKIDTEST",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, BackendS3, a.Backend())

	require.NoError(t, a.Archive(context.Background(), testSnapshot()))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/snapshots/consumed/user-1/snap-1.json", path)
	assert.Contains(t, string(body), `"snapshotId":"snap-1"`)
}
