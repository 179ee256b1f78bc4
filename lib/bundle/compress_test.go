// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"crypto/rand"
	"testing"
)

func TestCompressionTagString(t *testing.T) {
	tests := []struct {
		tag  CompressionTag
		want string
	}{
		{CompressionNone, "none"},
		{CompressionLZ4, "lz4"},
		{CompressionZstd, "zstd"},
		{CompressionTag(99), "unknown(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := tt.tag.String()
			if got != tt.want {
				t.Errorf("CompressionTag(%d).String() = %q, want %q", tt.tag, got, tt.want)
			}
		})
	}
}

func TestParseCompressionTag(t *testing.T) {
	for _, name := range []string{"none", "lz4", "zstd"} {
		t.Run(name, func(t *testing.T) {
			tag, err := ParseCompressionTag(name)
			if err != nil {
				t.Fatalf("ParseCompressionTag(%q) failed: %v", name, err)
			}
			if tag.String() != name {
				t.Errorf("roundtrip: ParseCompressionTag(%q).String() = %q", name, tag.String())
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := ParseCompressionTag("gzip")
		if err == nil {
			t.Error("ParseCompressionTag(\"gzip\") should fail")
		}
	})
}

func TestCompressDecompressNone(t *testing.T) {
	data := []byte("uncompressed data should pass through unchanged")

	compressed, err := compressBody(data, CompressionNone)
	if err != nil {
		t.Fatalf("compressBody(none) failed: %v", err)
	}

	// For CompressionNone, the compressed output should be the same slice.
	if &compressed[0] != &data[0] {
		t.Error("CompressionNone should return the same slice, not a copy")
	}

	decompressed, err := decompressBody(compressed, CompressionNone, len(data))
	if err != nil {
		t.Fatalf("decompressBody(none) failed: %v", err)
	}

	if string(decompressed) != string(data) {
		t.Error("none compression roundtrip failed")
	}
}

func TestCompressDecompressNoneSizeMismatch(t *testing.T) {
	data := []byte("five bytes extra")

	_, err := decompressBody(data, CompressionNone, len(data)+5)
	if err == nil {
		t.Error("decompressBody(none) should fail when size does not match")
	}
}

func TestCompressDecompressLZ4(t *testing.T) {
	// Compressible data: repeated pattern, roughly PTX-sized.
	data := make([]byte, 64*1024)
	for i := range data {
		data[i] = byte(i % 17)
	}

	compressed, err := compressBody(data, CompressionLZ4)
	if err != nil {
		t.Fatalf("compressBody(lz4) failed: %v", err)
	}

	if len(compressed) >= len(data) {
		t.Errorf("LZ4 did not compress: %d bytes → %d bytes", len(data), len(compressed))
	}

	decompressed, err := decompressBody(compressed, CompressionLZ4, len(data))
	if err != nil {
		t.Fatalf("decompressBody(lz4) failed: %v", err)
	}

	for i := range data {
		if decompressed[i] != data[i] {
			t.Fatalf("LZ4 roundtrip mismatch at byte %d", i)
		}
	}
}

func TestCompressDecompressZstd(t *testing.T) {
	// Text-like data: PTX assembly is highly repetitive.
	line := []byte("\tld.global.f32 \t%f1, [%rd4];\n\tfma.rn.f32 \t%f2, %f1, %f1, 0f3F800000;\n")
	repeated := make([]byte, 0, 64*1024)
	for len(repeated) < 64*1024 {
		repeated = append(repeated, line...)
	}

	compressed, err := compressBody(repeated, CompressionZstd)
	if err != nil {
		t.Fatalf("compressBody(zstd) failed: %v", err)
	}

	if len(compressed) >= len(repeated) {
		t.Errorf("Zstd did not compress: %d bytes → %d bytes", len(repeated), len(compressed))
	}

	ratio := float64(len(repeated)) / float64(len(compressed))
	if ratio < 2.0 {
		t.Errorf("Zstd compression ratio %.2fx is unexpectedly low for repetitive assembly", ratio)
	}

	decompressed, err := decompressBody(compressed, CompressionZstd, len(repeated))
	if err != nil {
		t.Fatalf("decompressBody(zstd) failed: %v", err)
	}

	for i := range repeated {
		if decompressed[i] != repeated[i] {
			t.Fatalf("Zstd roundtrip mismatch at byte %d", i)
		}
	}
}

func TestCompressIncompressibleLZ4(t *testing.T) {
	// Random data is incompressible.
	data := make([]byte, 64*1024)
	rand.Read(data)

	_, err := compressBody(data, CompressionLZ4)
	if err == nil {
		t.Fatal("LZ4 should return incompressible error for random data")
	}
	if !isIncompressible(err) {
		t.Errorf("expected incompressible error, got: %v", err)
	}
}

func TestCompressIncompressibleZstd(t *testing.T) {
	data := make([]byte, 64*1024)
	rand.Read(data)

	_, err := compressBody(data, CompressionZstd)
	if err == nil {
		t.Fatal("Zstd should return incompressible error for random data")
	}
	if !isIncompressible(err) {
		t.Errorf("expected incompressible error, got: %v", err)
	}
}

func TestCompressBodyUnsupportedTag(t *testing.T) {
	_, err := compressBody([]byte("data"), CompressionTag(99))
	if err == nil {
		t.Error("compressBody with unknown tag should fail")
	}
}

func TestDecompressBodyUnsupportedTag(t *testing.T) {
	_, err := decompressBody([]byte("data"), CompressionTag(99), 4)
	if err == nil {
		t.Error("decompressBody with unknown tag should fail")
	}
}

func BenchmarkCompressZstd(b *testing.B) {
	data := make([]byte, 64*1024)
	for i := range data {
		data[i] = byte(i % 17)
	}

	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		compressBody(data, CompressionZstd)
	}
}

func BenchmarkDecompressZstd(b *testing.B) {
	data := make([]byte, 64*1024)
	for i := range data {
		data[i] = byte(i % 17)
	}
	compressed, err := compressBody(data, CompressionZstd)
	if err != nil {
		b.Fatal(err)
	}

	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		decompressBody(compressed, CompressionZstd, len(data))
	}
}
