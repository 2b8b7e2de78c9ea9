package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheEntry_Expired(t *testing.T) {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	e := CacheEntry{SourceURL: "s", ImageURL: "i", CreatedAt: created}

	assert.False(t, e.Expired(created.Add(59*time.Minute), time.Hour))
	assert.True(t, e.Expired(created.Add(time.Hour), time.Hour), "An entry exactly ttl old is stale")
	assert.True(t, e.Expired(created.Add(2*time.Hour), time.Hour))
}

func TestPreview_JSON(t *testing.T) {
	b, err := json.Marshal(NewPreview("https://cdn.test/a.png"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"imageUrl":"https://cdn.test/a.png"}`, string(b))

	b, err = json.Marshal(NewPreview(""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"imageUrl":null}`, string(b))
}

func TestProbeResult(t *testing.T) {
	assert.True(t, ProbeResult{Status: 301, Location: "/x"}.IsRedirect())
	assert.False(t, ProbeResult{Status: 301}.IsRedirect())
	assert.True(t, ProbeResult{Status: 200, ContentType: "Image/JPEG"}.IsImage())
	assert.False(t, ProbeResult{Status: 200, ContentType: "text/html"}.IsImage())
	assert.False(t, ProbeResult{Status: 206, ContentType: "image/png"}.IsImage())
}

func TestResult_States(t *testing.T) {
	assert.True(t, Found("u").OK())
	assert.Equal(t, Empty(), Found(""))
	assert.False(t, Empty().OK())

	failed := Failed(errors.New("x"))
	assert.False(t, failed.OK())
	assert.Error(t, failed.Err)
}

func TestFetchError_Unwrap(t *testing.T) {
	inner := errors.New("connection reset")
	var err error = &FetchError{URL: "https://a.test", Reason: ReasonStatus, StatusCode: 503, Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "fetch https://a.test: unexpected status (status 503): connection reset", err.Error())

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 503, fe.StatusCode)
}
