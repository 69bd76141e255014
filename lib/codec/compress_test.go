// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"
)

func TestCompressionForPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want Compression
	}{
		{"run.cbor", CompressionNone},
		{"run.cbor.zst", CompressionZstd},
		{"/tmp/records/run.zstd", CompressionZstd},
		{"run.cbor.lz4", CompressionLZ4},
		{"run", CompressionNone},
	}
	for _, test := range tests {
		if got := CompressionForPath(test.path); got != test.want {
			t.Errorf("CompressionForPath(%q) = %q, want %q", test.path, got, test.want)
		}
	}
}

func TestCompressDecompress(t *testing.T) {
	t.Parallel()

	payload := []byte(strings.Repeat("sd 2:0:0:0: [sdb] tag#0 CDB: Synchronize Cache(10) 35 00\n", 200))

	for _, compression := range []Compression{CompressionNone, CompressionZstd, CompressionLZ4} {
		t.Run(string(compression), func(t *testing.T) {
			t.Parallel()

			compressed, err := Compress(payload, compression)
			if err != nil {
				t.Fatalf("Compress: %v", err)
			}
			if compression != CompressionNone && len(compressed) >= len(payload) {
				t.Errorf("compressed size %d not smaller than %d", len(compressed), len(payload))
			}
			decompressed, err := Decompress(compressed, compression)
			if err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if !bytes.Equal(decompressed, payload) {
				t.Error("Decompress did not restore the payload")
			}
		})
	}
}

func TestCompressUnknown(t *testing.T) {
	t.Parallel()

	if _, err := Compress([]byte("x"), Compression("brotli")); err == nil {
		t.Error("expected error for unknown compression")
	}
	if _, err := Decompress([]byte("x"), Compression("brotli")); err == nil {
		t.Error("expected error for unknown compression")
	}
}
