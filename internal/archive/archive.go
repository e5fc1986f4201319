// Package archive compresses closed audit logs and balance backups with
// zstd so the hot data directory stays small.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// CompressFile writes path's contents to path+".zst" and removes the
// original. Returns the archive path.
func CompressFile(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()

	dstPath := path + ".zst"
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dstPath, err)
	}

	enc, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		dst.Close()
		return "", fmt.Errorf("zstd writer: %w", err)
	}
	if _, err := io.Copy(enc, src); err != nil {
		enc.Close()
		dst.Close()
		os.Remove(dstPath)
		return "", fmt.Errorf("compress %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		dst.Close()
		os.Remove(dstPath)
		return "", fmt.Errorf("finish %s: %w", dstPath, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", dstPath, err)
	}

	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("remove original %s: %w", path, err)
	}
	return dstPath, nil
}

// ReadFile returns a file's contents, transparently decompressing
// ".zst" archives.
func ReadFile(path string) ([]byte, error) {
	if !strings.HasSuffix(path, ".zst") {
		return os.ReadFile(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()
	return io.ReadAll(dec)
}

// RotateDir compresses every plain file in dir except active and files
// that are already archives. Returns the archives written.
func RotateDir(dir, active string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var archived []string
	for _, e := range entries {
		if e.IsDir() || e.Name() == active || strings.HasSuffix(e.Name(), ".zst") {
			continue
		}
		out, err := CompressFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return archived, err
		}
		archived = append(archived, out)
	}
	return archived, nil
}
