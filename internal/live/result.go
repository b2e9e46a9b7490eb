package live

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is the tagged outcome of a backend function as it crosses the wire.
type Result struct {
	Status       Status          `json:"status"`
	Value        json.RawMessage `json:"value,omitempty"`
	ErrorKind    string          `json:"errorKind,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
}

// Ok wraps a successful value.
func Ok(v any) (Result, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Result{}, fmt.Errorf("encode result: %w", err)
	}
	return Result{Status: StatusSuccess, Value: raw}, nil
}

// Fail wraps err. Internal errors are reported without their message.
func Fail(err error) Result {
	if err == nil {
		return Result{Status: StatusError, ErrorKind: KindInternal, ErrorMessage: "internal error"}
	}
	kind := KindOf(err)
	msg := err.Error()
	if kind == KindInternal {
		msg = "internal error"
	}
	return Result{Status: StatusError, ErrorKind: kind, ErrorMessage: msg}
}

// Unwrap returns the value of a successful result or a *RemoteError.
func (r Result) Unwrap() (json.RawMessage, error) {
	if r.Status == StatusSuccess {
		return r.Value, nil
	}
	kind := r.ErrorKind
	if kind == "" {
		kind = KindInternal
	}
	return nil, &RemoteError{Kind: kind, Message: r.ErrorMessage}
}

// WriteEvent frames r as one server-sent event.
func WriteEvent(w io.Writer, r Result) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: result\ndata: %s\n\n", raw)
	return err
}

// readEvents decodes server-sent events from r and calls fn with each result
// until the stream ends. Comment lines are ignored.
func readEvents(r io.Reader, fn func(Result)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	var data strings.Builder
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if data.Len() == 0 {
				continue
			}
			var res Result
			if err := json.Unmarshal([]byte(data.String()), &res); err != nil {
				return fmt.Errorf("decode event: %w", err)
			}
			data.Reset()
			fn(res)
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}
