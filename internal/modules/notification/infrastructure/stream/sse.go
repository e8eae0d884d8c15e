package stream

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultSSEPath is where the portal serves the notification event stream.
const DefaultSSEPath = "/api/student/notifications/stream"

const maxFrameSize = 1 << 20

// SSEDialer opens a text/event-stream. Browsers' EventSource cannot set an
// Authorization header, so the portal expects the token as a query
// parameter; this dialer keeps that contract.
type SSEDialer struct {
	endpoint string
	client   *http.Client
}

// NewSSEDialer builds a dialer for baseURL+path. The client must not set a
// Timeout: it would cut the stream.
func NewSSEDialer(baseURL, path string, client *http.Client) *SSEDialer {
	if client == nil {
		client = &http.Client{}
	}
	if path == "" {
		path = DefaultSSEPath
	}
	return &SSEDialer{
		endpoint: strings.TrimRight(baseURL, "/") + path,
		client:   client,
	}
}

func (d *SSEDialer) Dial(ctx context.Context, token string) (Conn, error) {
	u, err := url.Parse(d.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse stream url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("open stream: unexpected status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("open stream: unexpected content type %q", ct)
	}
	return &sseConn{body: resp.Body, dec: NewDecoder(resp.Body)}, nil
}

type sseConn struct {
	body io.ReadCloser
	dec  *Decoder
}

func (c *sseConn) Next() (Frame, error) { return c.dec.Next() }
func (c *sseConn) Close() error         { return c.body.Close() }

// Decoder reads server-sent events. Comment lines (heartbeats) are skipped,
// multi-line data is joined with "\n", and a frame without an event field
// is named "message". A line or frame over maxFrameSize is discarded and the
// frame comes back with Truncated set; the stream itself stays readable.
type Decoder struct {
	r      *bufio.Reader
	line   []byte
	lastID string
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReaderSize(r, 4096)}
}

// Next returns the next dispatched frame, or io.EOF when the stream ends.
// A partial frame at the end of the stream is dropped.
func (d *Decoder) Next() (Frame, error) {
	var (
		name      string
		data      bytes.Buffer
		hasData   bool
		truncated bool
	)
	for {
		raw, tooLong, err := d.readLine()
		if err != nil {
			return Frame{}, err
		}
		if tooLong {
			truncated = true
			continue
		}

		line := string(raw)
		if line == "" {
			if !hasData && !truncated {
				name = ""
				continue
			}
			if name == "" {
				name = "message"
			}
			if truncated {
				return Frame{Name: name, ID: d.lastID, Truncated: true}, nil
			}
			return Frame{Name: name, ID: d.lastID, Data: data.Bytes()}, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			name = value
		case "data":
			if truncated {
				continue
			}
			if data.Len()+len(value)+1 > maxFrameSize {
				truncated = true
				data.Reset()
				continue
			}
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		case "id":
			if !strings.ContainsRune(value, 0) {
				d.lastID = value
			}
		}
	}
}

// readLine returns one line without its terminator. A line longer than
// maxFrameSize is consumed up to its newline and reported as tooLong.
func (d *Decoder) readLine() (line []byte, tooLong bool, err error) {
	d.line = d.line[:0]
	for {
		chunk, err := d.r.ReadSlice('\n')
		if !tooLong {
			if len(d.line)+len(chunk) > maxFrameSize {
				tooLong = true
				d.line = d.line[:0]
			} else {
				d.line = append(d.line, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil {
			return nil, false, err
		}
		break
	}
	line = bytes.TrimSuffix(d.line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	return line, tooLong, nil
}
