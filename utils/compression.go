package utils

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// CompressionGzip is the only algorithm persisted at rest. The field is
// stored alongside the payload so the format can evolve without a
// migration.
const (
	CompressionNone = "none"
	CompressionGzip = "gzip"
)

// CompressText gzips text for storage. Payloads under minSize are not
// worth the header overhead and are returned unchanged.
func CompressText(text string, minSize int) ([]byte, string, error) {
	data := []byte(text)
	if len(data) < minSize {
		return data, CompressionNone, nil
	}

	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)
	if _, err := writer.Write(data); err != nil {
		return nil, CompressionNone, fmt.Errorf("failed to write to gzip writer: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, CompressionNone, fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return buf.Bytes(), CompressionGzip, nil
}

// DecompressText reverses CompressText.
func DecompressText(compressed []byte, algorithm string) (string, error) {
	switch algorithm {
	case CompressionNone, "":
		return string(compressed), nil

	case CompressionGzip:
		reader, err := gzip.NewReader(bytes.NewReader(compressed))
		if err != nil {
			return "", fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer reader.Close()

		data, err := io.ReadAll(reader)
		if err != nil {
			return "", fmt.Errorf("failed to read from gzip reader: %w", err)
		}
		return string(data), nil

	default:
		return "", fmt.Errorf("unsupported compression algorithm: %s", algorithm)
	}
}
