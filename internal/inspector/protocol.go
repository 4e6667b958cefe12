package inspector

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// requestKind is the discriminator field every envelope carries (§6.1).
type requestKind string

const (
	kindTemplatetags requestKind = "TemplatetagsRequest"
	kindPythonEnv    requestKind = "PythonEnvRequest"
	kindDjangoInit   requestKind = "DjangoInitRequest"
	kindTemplateDirs requestKind = "TemplateDirsRequest"
)

// envelope is one line of the wire protocol: a discriminated request or
// response, correlated by id so pipelined lines can't be mismatched even
// though the bridge only ever has one in flight at a time.
type envelope struct {
	ID    string          `json:"id"`
	Kind  requestKind     `json:"kind"`
	Error string          `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func newRequestID() string {
	return uuid.NewString()
}

func decodeInto(data json.RawMessage, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("inspector: decode payload: %w", err)
	}
	return nil
}

// writeRequest marshals one request line, terminated by '\n', per §6.1's
// line-delimited JSON contract.
func writeRequest(w io.Writer, kind requestKind, id string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("inspector: marshal %s request: %w", kind, err)
	}
	env := envelope{ID: id, Kind: kind, Data: data}
	line, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("inspector: marshal envelope: %w", err)
	}
	if _, err := w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("inspector: write request: %w", err)
	}
	return nil
}

// readResponse reads one line and decodes it into an envelope, verifying
// the request id matches so a desynchronized stream fails loudly rather
// than silently returning a prior request's response.
func readResponse(r *bufio.Reader, wantID string) (envelope, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return envelope{}, fmt.Errorf("inspector: read response: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return envelope{}, fmt.Errorf("inspector: decode response: %w", err)
	}
	if env.ID != wantID {
		return envelope{}, fmt.Errorf("inspector: response id %q does not match request id %q", env.ID, wantID)
	}
	if env.Error != "" {
		return envelope{}, fmt.Errorf("inspector: subprocess error: %s", env.Error)
	}
	return env, nil
}
