// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/kernelbundle/lib/codec"
)

// Portable container format constants.
const (
	// containerVersion is the format version byte. Version 1 is the
	// initial format.
	containerVersion = 1

	// containerHeaderSize is the fixed header: 8-byte magic + 1-byte
	// compression tag + 7-byte reserved + 8-byte uncompressed body
	// size + 32-byte body digest. The reserved bytes keep the size
	// field 8-byte aligned.
	containerHeaderSize = 56

	// maxBodySize caps the uncompressed body size a container may
	// declare. The digest covers only the compressed body, so the
	// size field must be sanity-checked on its own before it sizes a
	// decompression buffer. 4 GiB is far beyond any real kernel
	// bundle.
	maxBodySize = 4 << 30
)

// containerMagic is the 8-byte container signature: "KBUNDLE" +
// version byte.
var containerMagic = [8]byte{'K', 'B', 'U', 'N', 'D', 'L', 'E', containerVersion}

// bundleDomainKey is the 32-byte key for BLAKE3 keyed hashing of
// bundle bodies. Domain separation keeps bundle digests from
// colliding with any other BLAKE3 use. The byte values are the ASCII
// encoding of the domain name, zero-padded to 32 bytes, so the key is
// inspectable in hex dumps without sacrificing any cryptographic
// property.
var bundleDomainKey = [32]byte{
	'k', 'e', 'r', 'n', 'e', 'l', 'b', 'u', 'n', 'd', 'l', 'e', '.',
	'b', 'o', 'd', 'y', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// hashBody computes the bundle-domain BLAKE3 keyed digest of a
// compressed body.
func hashBody(body []byte) [32]byte {
	hasher, err := blake3.NewKeyed(bundleDomainKey[:])
	if err != nil {
		panic("bundle: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(body)

	var digest [32]byte
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// EncodeBundle converts a bundle into a self-describing byte
// container for storage by an external cache: deterministic CBOR
// body, compressed with the requested algorithm, framed with a
// magic, the uncompressed body size, and a BLAKE3 digest of the
// compressed body. If the body is incompressible the container falls
// back to CompressionNone transparently.
//
// Identical bundles always encode to identical bytes, so the
// container itself is safe to use as a cache value under a
// content-derived key.
func EncodeBundle(bundle []Group, tag CompressionTag) ([]byte, error) {
	body, err := codec.Marshal(bundle)
	if err != nil {
		return nil, fmt.Errorf("encoding bundle body: %w", err)
	}

	compressed, err := compressBody(body, tag)
	if err != nil {
		if !isIncompressible(err) {
			return nil, fmt.Errorf("compressing bundle body: %w", err)
		}
		compressed = body
		tag = CompressionNone
	}

	digest := hashBody(compressed)

	container := make([]byte, 0, containerHeaderSize+len(compressed))
	container = append(container, containerMagic[:]...)
	container = append(container, byte(tag))
	container = append(container, 0, 0, 0, 0, 0, 0, 0) // reserved
	container = binary.LittleEndian.AppendUint64(container, uint64(len(body)))
	container = append(container, digest[:]...)
	container = append(container, compressed...)
	return container, nil
}

// DecodeBundle parses a container produced by [EncodeBundle],
// verifying the magic, version, and body digest before decoding.
// Corruption anywhere in the container is detected here rather than
// surfacing later as a bad artifact write.
func DecodeBundle(container []byte) ([]Group, error) {
	if len(container) < containerHeaderSize {
		return nil, fmt.Errorf("container too short: %d bytes, need at least %d",
			len(container), containerHeaderSize)
	}

	if !bytes.Equal(container[:8], containerMagic[:]) {
		return nil, fmt.Errorf("bad container magic %x (format version mismatch or not a bundle)",
			container[:8])
	}

	tag := CompressionTag(container[8])
	bodySize := binary.LittleEndian.Uint64(container[16:24])
	if bodySize > maxBodySize {
		return nil, fmt.Errorf("container declares body size %d, exceeds maximum %d",
			bodySize, uint64(maxBodySize))
	}

	var digest [32]byte
	copy(digest[:], container[24:56])

	compressed := container[containerHeaderSize:]
	if computed := hashBody(compressed); computed != digest {
		return nil, fmt.Errorf("container digest mismatch: stored %x, computed %x",
			digest, computed)
	}

	body, err := decompressBody(compressed, tag, int(bodySize))
	if err != nil {
		return nil, fmt.Errorf("decompressing bundle body: %w", err)
	}

	var bundle []Group
	if err := codec.Unmarshal(body, &bundle); err != nil {
		return nil, fmt.Errorf("decoding bundle body: %w", err)
	}
	return bundle, nil
}
