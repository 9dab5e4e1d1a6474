package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Veraticus/spicecat/internal/model"
)

// Output formats for bulk results.
const (
	FormatJSONL = "jsonl"
	FormatArray = "array"
)

// ErrEmptyInput is returned when a request stream holds no requests.
var ErrEmptyInput = errors.New("no requests in input")

// ReadRequests decodes classification requests from either a JSON array or
// JSON lines.
func ReadRequests(r io.Reader) ([]model.ClassificationRequest, error) {
	return decodeAll[model.ClassificationRequest](r)
}

// ReadItems decodes bulk items, as written by ItemWriter, from a JSON array
// or JSON lines.
func ReadItems(r io.Reader) ([]model.BulkItem, error) {
	return decodeAll[model.BulkItem](r)
}

func decodeAll[T any](r io.Reader) ([]T, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(br)
	var out []T
	if first == '[' {
		if err := dec.Decode(&out); err != nil {
			return nil, fmt.Errorf("failed to decode JSON array: %w", err)
		}
	} else {
		for line := 1; ; line++ {
			var v T
			err := dec.Decode(&v)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("failed to decode record %d: %w", line, err)
			}
			out = append(out, v)
		}
	}

	if len(out) == 0 {
		return nil, ErrEmptyInput
	}
	return out, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if !bytes.ContainsRune([]byte(" \t\r\n"), rune(b)) {
			return b, br.UnreadByte()
		}
	}
}

// ItemWriter writes bulk items as JSON lines or as a single JSON array.
type ItemWriter struct {
	w      io.Writer
	format string
	count  int
}

// NewItemWriter creates a writer for the given format.
func NewItemWriter(w io.Writer, format string) (*ItemWriter, error) {
	if format != FormatJSONL && format != FormatArray {
		return nil, fmt.Errorf("unknown output format %q (want %s or %s)", format, FormatJSONL, FormatArray)
	}
	return &ItemWriter{w: w, format: format}, nil
}

// Write emits one item.
func (iw *ItemWriter) Write(item model.BulkItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode item %d: %w", item.Index, err)
	}

	var prefix string
	switch {
	case iw.format == FormatJSONL:
	case iw.count == 0:
		prefix = "[\n"
	default:
		prefix = ",\n"
	}
	iw.count++

	if _, err := io.WriteString(iw.w, prefix); err != nil {
		return err
	}
	if _, err := iw.w.Write(data); err != nil {
		return err
	}
	if iw.format == FormatJSONL {
		_, err = io.WriteString(iw.w, "\n")
	}
	return err
}

// Close terminates an array; it is a no-op for JSON lines.
func (iw *ItemWriter) Close() error {
	if iw.format != FormatArray {
		return nil
	}
	closing := "\n]\n"
	if iw.count == 0 {
		closing = "[]\n"
	}
	_, err := io.WriteString(iw.w, closing)
	return err
}
