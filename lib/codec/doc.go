// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the standard CBOR encoding configuration for
// kernel bundles.
//
// Bundles cross process and machine boundaries: a bundle collected on
// one host may be stored by a remote cache and replayed on another.
// The encoder therefore uses Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical bundle always produces
// identical bytes, which keeps content digests stable across encoder
// runs.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Bundle types carry `cbor` struct tags; they are never serialized as
// JSON.
package codec
