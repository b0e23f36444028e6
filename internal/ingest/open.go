package ingest

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/gyaneshwarpardhi/activity/internal/event"
)

// Format names a supported export layout.
type Format string

const (
	FormatAuto Format = ""
	FormatCSV  Format = "csv"
	FormatXML  Format = "xml"
	FormatJSON Format = "json" // JSON array or newline-delimited objects
)

// ParseFormat maps a user-supplied name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "csv":
		return FormatCSV, nil
	case "xml":
		return FormatXML, nil
	case "json", "ndjson", "jsonl":
		return FormatJSON, nil
	}
	return FormatAuto, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromContentType maps an HTTP media type to a Format.
func FormatFromContentType(ct string) Format {
	ct = strings.ToLower(ct)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	switch strings.TrimSpace(ct) {
	case "text/csv":
		return FormatCSV
	case "application/xml", "text/xml":
		return FormatXML
	case "application/json", "application/x-ndjson", "application/jsonl":
		return FormatJSON
	}
	return FormatAuto
}

// formatFromName guesses from the file extension, ignoring compression suffixes.
func formatFromName(name string) Format {
	name = strings.ToLower(name)
	name = strings.TrimSuffix(strings.TrimSuffix(name, ".gz"), ".zst")
	switch filepath.Ext(name) {
	case ".csv":
		return FormatCSV
	case ".xml":
		return FormatXML
	case ".json", ".ndjson", ".jsonl":
		return FormatJSON
	}
	return FormatAuto
}

// sniff looks at the first non-blank byte of decoded text.
func sniff(head []byte) Format {
	head = bytes.TrimLeft(head, " \t\r\n")
	if len(head) == 0 {
		return FormatAuto
	}
	switch head[0] {
	case '<':
		return FormatXML
	case '[', '{':
		return FormatJSON
	}
	return FormatCSV
}

// NewReader wraps r so that it yields UTF-8 text: gzip and zstd streams
// are decompressed (detected by magic bytes) and a UTF-8 or UTF-16 byte
// order mark is honoured. Close releases the decompressor.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	magic, _ := br.Peek(4)

	var (
		src    io.Reader = br
		closer           = func() error { return nil }
	)
	switch {
	case len(magic) >= 2 && magic[0] == 0x1f && magic[1] == 0x8b:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		src, closer = zr, zr.Close
	case bytes.Equal(magic, []byte{0x28, 0xb5, 0x2f, 0xfd}):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		src, closer = zr, func() error { zr.Close(); return nil }
	}

	text := transform.NewReader(src, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	return &readCloser{Reader: text, close: closer}, nil
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r *readCloser) Close() error { return r.close() }

// Decode reads every entry from r in the given format. FormatAuto sniffs
// the content.
func Decode(r io.Reader, format Format) ([]Raw, error) {
	rc, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	br := bufio.NewReader(rc)
	if format == FormatAuto {
		head, _ := br.Peek(512)
		format = sniff(head)
	}
	switch format {
	case FormatCSV:
		return decodeCSV(br)
	case FormatXML:
		return decodeXML(br)
	case FormatJSON:
		return decodeJSON(br)
	}
	return nil, ErrUnknownFormat
}

// DecodeFile decodes one export file, picking the format from its name
// when format is FormatAuto.
func DecodeFile(path string, format Format) ([]Raw, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if format == FormatAuto {
		format = formatFromName(path)
	}
	raws, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return raws, nil
}

// LoadFiles decodes and normalizes up to opts.MaxFiles exports into one
// time-ordered record list.
func LoadFiles(paths []string, format Format, opts Options) ([]event.Record, Stats, error) {
	if opts.MaxFiles > 0 && len(paths) > opts.MaxFiles {
		return nil, Stats{}, fmt.Errorf("%w: %d given, at most %d allowed", ErrTooManyFiles, len(paths), opts.MaxFiles)
	}
	var all []Raw
	for _, p := range paths {
		raws, err := DecodeFile(p, format)
		if err != nil {
			return nil, Stats{}, err
		}
		all = append(all, raws...)
	}
	recs, st := Normalize(all, opts)
	return recs, st, nil
}
