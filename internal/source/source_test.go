package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		q       Query
		wantErr string
	}{
		{"ok", Query{Text: "weather", MaxItems: 100}, ""},
		{"ok with dates", Query{Text: "weather", Since: "2017-04-01", Until: "2017-04-17", MaxItems: 1}, ""},
		{"empty text", Query{Text: "  ", MaxItems: 1}, "query text is required"},
		{"zero max", Query{Text: "q", MaxItems: 0}, "max items"},
		{"too many", Query{Text: "q", MaxItems: MaxItemsLimit + 1}, "max items"},
		{"bad since", Query{Text: "q", Since: "04/01/2017", MaxItems: 1}, "invalid since"},
		{"bad until", Query{Text: "q", Until: "yesterday", MaxItems: 1}, "invalid until"},
		{"inverted", Query{Text: "q", Since: "2017-04-17", Until: "2017-04-01", MaxItems: 1}, "before since"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestQuery_SearchText(t *testing.T) {
	assert.Equal(t, "weather", Query{Text: " weather "}.SearchText())
	assert.Equal(t, "weather since:2017-04-01", Query{Text: "weather", Since: "2017-04-01"}.SearchText())
}

func TestLoadCredentials_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"ConsumerKey": "ck", "ConsumerSecret": "cs",
		"AccessToken": "at", "AccessTokenSecret": "ats"
	}`), 0o600))

	c, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, testCreds, c)
}

func TestLoadCredentials_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
consumer_key: ck
consumer_secret: cs
access_token: at
access_token_secret: ats
`), 0o600))

	c, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, testCreds, c)
}

func TestLoadCredentials_MissingField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ConsumerKey": "ck"}`), 0o600))

	_, err := LoadCredentials(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials missing")
}

func TestCredentials_ValidateNamesFirstMissingField(t *testing.T) {
	tests := []struct {
		creds Credentials
		want  string
	}{
		{Credentials{}, "ConsumerKey"},
		{Credentials{ConsumerKey: "ck"}, "ConsumerSecret"},
		{Credentials{ConsumerKey: "ck", ConsumerSecret: "cs"}, "missing AccessToken"},
		{Credentials{ConsumerKey: "ck", ConsumerSecret: "cs", AccessToken: "at", AccessTokenSecret: " "}, "AccessTokenSecret"},
	}
	for _, tt := range tests {
		for range 20 {
			err := tt.creds.Validate()
			require.Error(t, err)
			assert.True(t, strings.HasSuffix(err.Error(), tt.want), err.Error())
		}
	}
	assert.NoError(t, Credentials{ConsumerKey: "a", ConsumerSecret: "b", AccessToken: "c", AccessTokenSecret: "d"}.Validate())
}

func TestLoadCredentials_MissingFile(t *testing.T) {
	_, err := LoadCredentials(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read credentials")
}

func writeJSONL(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "posts.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func TestJSONLSource_Replays(t *testing.T) {
	path := writeJSONL(t, compact(statusJSON(1, "Denver")), "", compact(statusJSON(2, "Boise")))

	src, err := OpenJSONL(path, 0)
	require.NoError(t, err)
	defer src.Close() //nolint:errcheck

	ids, err := drain(t, src)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []int64{1, 2}, ids)
}

func TestJSONLSource_MaxItems(t *testing.T) {
	path := writeJSONL(t, compact(statusJSON(1, "a")), compact(statusJSON(2, "b")))

	src, err := OpenJSONL(path, 1)
	require.NoError(t, err)
	defer src.Close() //nolint:errcheck

	ids, err := drain(t, src)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []int64{1}, ids)
}

func TestJSONLSource_Throttle(t *testing.T) {
	path := writeJSONL(t,
		compact(statusJSON(1, "a")),
		`{"errors": [{"code": 88, "message": "Rate limit exceeded"}]}`,
		compact(statusJSON(2, "b")),
	)

	src, err := OpenJSONL(path, 0)
	require.NoError(t, err)
	defer src.Close() //nolint:errcheck

	ids, err := drain(t, src)
	assert.ErrorIs(t, err, ErrThrottled)
	assert.Equal(t, []int64{1}, ids)
}

func TestJSONLSource_BadLine(t *testing.T) {
	path := writeJSONL(t, `{not json`)

	src, err := OpenJSONL(path, 0)
	require.NoError(t, err)
	defer src.Close() //nolint:errcheck

	_, err = src.Next(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestOpenJSONL_Missing(t *testing.T) {
	_, err := OpenJSONL(filepath.Join(t.TempDir(), "missing.jsonl"), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuth)
}
