// Package stringtable implements read-optimized on-disk string-to-string
// tables.
//
// A table file is a flat binary blob holding, per table: an int32
// displacement array and int32 value-index array for a minimal perfect hash,
// then the key and value strings (a uint32 offset array over NUL-terminated,
// deduplicated bytes). Section locations live in a JSON sidecar next to the
// blob ("<path>.info"). Readers map the blob read-only and resolve lookups
// directly against the mapping.
//
// When minimal perfect hash generation fails for a table, its contents are
// stored inline in the sidecar instead, bounded by MaxInlineBytes.
package stringtable

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/wtimoney/krait/check"
	"github.com/wtimoney/krait/fsutil"
)

const (
	// DefaultMaxIterations bounds the displacement search during hash
	// generation.
	DefaultMaxIterations = 1 << 20

	// MaxInlineBytes bounds the JSON size of a table stored inline after
	// hash generation fails.
	MaxInlineBytes = 1 << 20
)

// ErrNotFound is returned by Table.Get for absent keys.
var ErrNotFound = errors.New("key not found")

// InfoPath returns the sidecar path for a table file path.
func InfoPath(binPath string) string { return binPath + ".info" }

type sectionInfo struct {
	Offset int64 `json:"offset"`
	Length int64 `json:"length"`
}

type stringSectionInfo struct {
	Offsets sectionInfo `json:"offsets"`
	Bytes   sectionInfo `json:"bytes"`
}

type hashTableInfo struct {
	Gs     sectionInfo       `json:"gs"`
	Vs     sectionInfo       `json:"vs"`
	Keys   stringSectionInfo `json:"keys"`
	Values stringSectionInfo `json:"values"`
}

type inlineTableInfo struct {
	Dct map[string]string `json:"dct"`
}

type tableInfo struct {
	Hash   *hashTableInfo   `json:"hash,omitempty"`
	Inline *inlineTableInfo `json:"inline,omitempty"`
}

// WriteOptions tunes table generation. The zero value selects defaults.
type WriteOptions struct {
	// MaxIterations overrides DefaultMaxIterations when positive.
	MaxIterations int
}

// WriteFile writes all tables to binPath and its info sidecar.
func WriteFile(binPath string, tables map[string]map[string]string) error {
	return WriteFileOptions(binPath, tables, WriteOptions{})
}

// WriteFileOptions is WriteFile with explicit generation options.
func WriteFileOptions(binPath string, tables map[string]map[string]string, opts WriteOptions) error {
	if err := check.NonEmpty(binPath, "binPath"); err != nil {
		return err
	}
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	var bin bytes.Buffer
	info := make(map[string]tableInfo, len(tables))

	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ti, err := writeTable(&bin, tables[name], maxIter)
		if err != nil {
			return fmt.Errorf("table %q: %w", name, err)
		}
		info[name] = ti
	}

	if err := os.WriteFile(binPath, bin.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing table file: %w", err)
	}
	infoBytes, err := json.MarshalIndent(info, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding info: %w", err)
	}
	if err := fsutil.AtomicWriteFile(InfoPath(binPath), infoBytes, 0o644); err != nil {
		return fmt.Errorf("writing info file: %w", err)
	}
	return nil
}

func writeTable(bin *bytes.Buffer, dct map[string]string, maxIter int) (tableInfo, error) {
	if err := check.Arg(len(dct) > 0, "table must not be empty"); err != nil {
		return tableInfo{}, err
	}
	for k, v := range dct {
		if err := check.Argf(!bytes.ContainsRune([]byte(k), 0), "key %q contains NUL", k); err != nil {
			return tableInfo{}, err
		}
		if err := check.Argf(!bytes.ContainsRune([]byte(v), 0), "value for key %q contains NUL", k); err != nil {
			return tableInfo{}, err
		}
	}

	keys := make([]string, 0, len(dct))
	for k := range dct {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values := make([]string, len(keys))
	idxByKey := make(map[string]int32, len(keys))
	for i, k := range keys {
		values[i] = dct[k]
		idxByKey[k] = int32(i)
	}

	gs, vs, err := createMinimalPerfectHash(idxByKey, maxIter)
	if err != nil {
		var hg *ErrHashGeneration
		if errors.As(err, &hg) {
			return inlineFallback(dct)
		}
		return tableInfo{}, err
	}
	if err := verifyMinimalPerfectHash(gs, vs, idxByKey); err != nil {
		return tableInfo{}, err
	}

	ti := hashTableInfo{}
	ti.Gs = writeInt32Section(bin, gs)
	ti.Vs = writeInt32Section(bin, vs)
	ti.Keys = writeStringSection(bin, keys)
	ti.Values = writeStringSection(bin, values)
	return tableInfo{Hash: &ti}, nil
}

func inlineFallback(dct map[string]string) (tableInfo, error) {
	encoded, err := json.Marshal(dct)
	if err != nil {
		return tableInfo{}, err
	}
	if len(encoded) >= MaxInlineBytes {
		return tableInfo{}, fmt.Errorf("inline fallback exceeds %d bytes", MaxInlineBytes)
	}
	return tableInfo{Inline: &inlineTableInfo{Dct: dct}}, nil
}

func writeInt32Section(bin *bytes.Buffer, values []int32) sectionInfo {
	offset := int64(bin.Len())
	for _, v := range values {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v))
		bin.Write(b[:])
	}
	return sectionInfo{Offset: offset, Length: int64(bin.Len()) - offset}
}

// writeStringSection writes the raw bytes followed by the uint32 offset
// array. Repeated strings share a single copy of their bytes.
func writeStringSection(bin *bytes.Buffer, strs []string) stringSectionInfo {
	bytesOffset := int64(bin.Len())
	offsets := make([]int32, 0, len(strs))
	seen := make(map[string]int32, len(strs))
	for _, s := range strs {
		if off, ok := seen[s]; ok {
			offsets = append(offsets, off)
			continue
		}
		off := int32(int64(bin.Len()) - bytesOffset)
		seen[s] = off
		offsets = append(offsets, off)
		bin.WriteString(s)
		bin.WriteByte(0)
	}
	bytesLength := int64(bin.Len()) - bytesOffset
	offsetsInfo := writeInt32Section(bin, offsets)
	return stringSectionInfo{
		Offsets: offsetsInfo,
		Bytes:   sectionInfo{Offset: bytesOffset, Length: bytesLength},
	}
}
