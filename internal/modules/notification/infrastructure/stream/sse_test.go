package stream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoder_Frames(t *testing.T) {
	raw := strings.Join([]string{
		": heartbeat",
		"",
		"event: notification",
		`data: {"id":"1"}`,
		"",
		"id: 42",
		"data: line one",
		"data:line two",
		"",
		"event: notification\r",
		"data: crlf\r",
		"\r",
		"event: ping",
		"",
		"retry: 1000",
		"data: tail",
	}, "\n")

	dec := NewDecoder(strings.NewReader(raw))

	f, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "notification", f.Name)
	assert.Equal(t, `{"id":"1"}`, string(f.Data))

	f, err = dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "message", f.Name)
	assert.Equal(t, "42", f.ID)
	assert.Equal(t, "line one\nline two", string(f.Data))

	f, err = dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "notification", f.Name)
	assert.Equal(t, "crlf", string(f.Data))
	assert.Equal(t, "42", f.ID)

	// the event without data is discarded and the unterminated tail never dispatches
	_, err = dec.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecoder_OversizedFrameDoesNotStopStream(t *testing.T) {
	huge := strings.Repeat("x", 2*maxFrameSize)
	raw := "event: notification\n" +
		"id: 7\n" +
		"data: " + huge + "\n\n" +
		"event: notification\n" +
		`data: {"id":"after"}` + "\n\n"

	dec := NewDecoder(strings.NewReader(raw))

	f, err := dec.Next()
	require.NoError(t, err)
	assert.True(t, f.Truncated)
	assert.Equal(t, "notification", f.Name)
	assert.Equal(t, "7", f.ID)
	assert.Empty(t, f.Data)

	f, err = dec.Next()
	require.NoError(t, err)
	assert.False(t, f.Truncated)
	assert.Equal(t, `{"id":"after"}`, string(f.Data))

	_, err = dec.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecoder_ManyDataLinesOverLimit(t *testing.T) {
	line := "data: " + strings.Repeat("y", maxFrameSize/4) + "\n"
	raw := "event: notification\n" + strings.Repeat(line, 5) + "\n" +
		"event: notification\ndata: ok\n\n"

	dec := NewDecoder(strings.NewReader(raw))

	f, err := dec.Next()
	require.NoError(t, err)
	assert.True(t, f.Truncated)

	f, err = dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "ok", string(f.Data))
}

func TestSSEDialer_SendsTokenAsQueryParam(t *testing.T) {
	seen := make(chan *http.Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Clone(context.Background())
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: notification\ndata: {\"id\":\"n1\"}\n\n")
	}))
	defer srv.Close()

	conn, err := NewSSEDialer(srv.URL+"/", "", nil).Dial(context.Background(), "a b&c")
	require.NoError(t, err)
	defer conn.Close()

	f, err := conn.Next()
	require.NoError(t, err)
	assert.Equal(t, `{"id":"n1"}`, string(f.Data))

	req := <-seen
	assert.Equal(t, DefaultSSEPath, req.URL.Path)
	assert.Equal(t, "a b&c", req.URL.Query().Get("token"))
	assert.Equal(t, "text/event-stream", req.Header.Get("Accept"))

	_, err = conn.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSSEDialer_RejectsBadResponses(t *testing.T) {
	unauthorized := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
	}))
	defer unauthorized.Close()

	_, err := NewSSEDialer(unauthorized.URL, "", nil).Dial(context.Background(), "expired")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	plain := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer plain.Close()

	_, err = NewSSEDialer(plain.URL, "", nil).Dial(context.Background(), "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content type")
}
