// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding used for verification run
// records, and the optional compression wrapped around them on disk.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
// Timestamps are encoded as RFC 3339 text so a record printed in
// diagnostic notation stays readable.
//
//	data, err := codec.Marshal(record)
//	err = codec.Unmarshal(data, &record)
//
// Record files pick their compression from the file extension: ".zst"
// (zstd), ".lz4" (LZ4 frame), anything else uncompressed. See
// [CompressionForPath], [Compress] and [Decompress].
package codec
