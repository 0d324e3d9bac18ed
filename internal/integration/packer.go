package integration

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/valter-silva-au/known-board/internal/core"
)

// Frame layout: magic "KBZ", format byte, flags byte, gzip body.
const (
	packMagic        = "KBZ"
	packFormat  byte = 1
	flagPool    byte = 1 << 0
	headerLen        = len(packMagic) + 2
	poolRefMark      = "\x00"
)

// ErrNotPacked is returned when decompressing data without a KBZ header.
var ErrNotPacked = errors.New("data is not a KBZ frame")

// Packer implements core.Compressor. With the value pool enabled, string
// values long enough and repeated often enough are stored once and
// referenced by index.
type Packer struct{}

// NewPacker creates a Packer.
func NewPacker() *Packer {
	return &Packer{}
}

type pooledDoc struct {
	Pool []string        `json:"p"`
	Doc  json.RawMessage `json:"d"`
}

// IsCompressed reports whether data starts with the KBZ header.
func (p *Packer) IsCompressed(data []byte) bool {
	return len(data) >= headerLen && string(data[:len(packMagic)]) == packMagic
}

// Compress packs a JSON document.
func (p *Packer) Compress(jsonText string, opts core.CompressionOptions) ([]byte, error) {
	doc, err := decodeJSON([]byte(jsonText))
	if err != nil {
		return nil, fmt.Errorf("packing: input is not JSON: %w", err)
	}

	var flags byte
	body := []byte(jsonText)
	if opts.EnableValuePool {
		flags |= flagPool
		pool, index := buildPool(doc, opts)
		encoded, err := json.Marshal(encodeValue(doc, index))
		if err != nil {
			return nil, fmt.Errorf("packing: encoding document: %w", err)
		}
		body, err = json.Marshal(pooledDoc{Pool: pool, Doc: encoded})
		if err != nil {
			return nil, fmt.Errorf("packing: encoding pool: %w", err)
		}
	}

	var buf bytes.Buffer
	buf.WriteString(packMagic)
	buf.WriteByte(packFormat)
	buf.WriteByte(flags)
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(body); err != nil {
		return nil, fmt.Errorf("packing: compressing: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("packing: compressing: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress restores the JSON text from a KBZ frame.
func (p *Packer) Decompress(data []byte) (string, error) {
	if !p.IsCompressed(data) {
		return "", ErrNotPacked
	}
	if format := data[len(packMagic)]; format != packFormat {
		return "", fmt.Errorf("unpacking: unsupported format %d", format)
	}
	flags := data[len(packMagic)+1]

	gz, err := gzip.NewReader(bytes.NewReader(data[headerLen:]))
	if err != nil {
		return "", fmt.Errorf("unpacking: %w", err)
	}
	defer gz.Close()
	body, err := io.ReadAll(gz)
	if err != nil {
		return "", fmt.Errorf("unpacking: %w", err)
	}

	if flags&flagPool == 0 {
		return string(body), nil
	}

	var pd pooledDoc
	if err := json.Unmarshal(body, &pd); err != nil {
		return "", fmt.Errorf("unpacking: reading pool: %w", err)
	}
	doc, err := decodeJSON(pd.Doc)
	if err != nil {
		return "", fmt.Errorf("unpacking: reading document: %w", err)
	}
	restored, err := decodeValue(doc, pd.Pool)
	if err != nil {
		return "", fmt.Errorf("unpacking: %w", err)
	}
	out, err := json.Marshal(restored)
	if err != nil {
		return "", fmt.Errorf("unpacking: encoding document: %w", err)
	}
	return string(out), nil
}

// decodeJSON parses a single JSON value keeping numbers exact.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}

// buildPool picks the strings to pool, in first-seen order.
func buildPool(doc any, opts core.CompressionOptions) ([]string, map[string]int) {
	counts := make(map[string]int)
	var order []string
	var count func(v any)
	count = func(v any) {
		switch x := v.(type) {
		case string:
			if len(x) < opts.PoolMinStringLen {
				return
			}
			if counts[x] == 0 {
				order = append(order, x)
			}
			counts[x]++
		case []any:
			for _, e := range x {
				count(e)
			}
		case map[string]any:
			for _, e := range x {
				count(e)
			}
		}
	}
	count(doc)

	pool := []string{}
	index := make(map[string]int)
	for _, s := range order {
		if counts[s] >= opts.PoolMinRepeats {
			index[s] = len(pool)
			pool = append(pool, s)
		}
	}
	return pool, index
}

// encodeValue replaces pooled strings by "\x00<index>". A literal string
// starting with the marker is escaped by doubling it.
func encodeValue(v any, index map[string]int) any {
	switch x := v.(type) {
	case string:
		if i, ok := index[x]; ok {
			return poolRefMark + strconv.Itoa(i)
		}
		if strings.HasPrefix(x, poolRefMark) {
			return poolRefMark + x
		}
		return x
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = encodeValue(e, index)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = encodeValue(e, index)
		}
		return out
	}
	return v
}

func decodeValue(v any, pool []string) (any, error) {
	switch x := v.(type) {
	case string:
		if !strings.HasPrefix(x, poolRefMark) {
			return x, nil
		}
		rest := x[len(poolRefMark):]
		if strings.HasPrefix(rest, poolRefMark) {
			return rest, nil
		}
		i, err := strconv.Atoi(rest)
		if err != nil || i < 0 || i >= len(pool) {
			return nil, fmt.Errorf("bad pool reference %q", rest)
		}
		return pool[i], nil
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			d, err := decodeValue(e, pool)
			if err != nil {
				return nil, err
			}
			out[i] = d
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			d, err := decodeValue(e, pool)
			if err != nil {
				return nil, err
			}
			out[k] = d
		}
		return out, nil
	}
	return v, nil
}
