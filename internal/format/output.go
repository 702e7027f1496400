package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
)

const (
	JSON = "json"
	EDN  = "edn"
	Text = "text"
)

// Texter is implemented by payloads that have a human-readable form.
type Texter interface {
	Text() string
}

// Parse normalizes a --format value. Empty means json.
func Parse(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", JSON:
		return JSON, nil
	case EDN, Text:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format: %s (want json|edn|text)", s)
	}
}

// Write writes v in the requested format. text falls back to json for
// payloads that are not Texters.
func Write(w io.Writer, v any, format string, pretty bool) error {
	f, err := Parse(format)
	if err != nil {
		return err
	}
	switch f {
	case EDN:
		return WriteEDN(w, v, pretty)
	case Text:
		if t, ok := v.(Texter); ok {
			_, err := io.WriteString(w, strings.TrimRight(t.Text(), "\n")+"\n")
			return err
		}
	}
	return WriteJSON(w, v, pretty)
}

// WriteJSON writes one JSON document followed by a newline. Map keys are
// sorted so output is stable.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = sonic.ConfigStd.MarshalIndent(v, "", "  ")
	} else {
		b, err = sonic.ConfigStd.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
