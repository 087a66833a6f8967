package stringtable

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// File is an open string table file. It holds a read-only mapping of the
// binary blob for the lifetime of the File; Close releases it.
type File struct {
	path   string
	data   []byte
	mapped bool
	tables map[string]*Table
}

// Open maps the table file at binPath and parses its info sidecar.
func Open(binPath string) (*File, error) {
	infoBytes, err := os.ReadFile(InfoPath(binPath))
	if err != nil {
		return nil, fmt.Errorf("reading info file: %w", err)
	}
	var info map[string]tableInfo
	if err := json.Unmarshal(infoBytes, &info); err != nil {
		return nil, fmt.Errorf("parsing info file: %w", err)
	}

	f := &File{path: binPath, tables: make(map[string]*Table, len(info))}

	fd, err := os.Open(binPath)
	if err != nil {
		return nil, fmt.Errorf("opening table file: %w", err)
	}
	defer fd.Close()
	st, err := fd.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat table file: %w", err)
	}
	// A file whose every table is inline has no binary payload; mmap of a
	// zero-length file is invalid.
	if st.Size() > 0 {
		data, err := unix.Mmap(int(fd.Fd()), 0, int(st.Size()), unix.PROT_READ, unix.MAP_SHARED)
		if err != nil {
			return nil, fmt.Errorf("mmap table file: %w", err)
		}
		f.data = data
		f.mapped = true
	}

	for name, ti := range info {
		t, err := newTable(f.data, ti)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("table %q: %w", name, err)
		}
		f.tables[name] = t
	}
	return f, nil
}

// Table returns the named table.
func (f *File) Table(name string) (*Table, error) {
	t, ok := f.tables[name]
	if !ok {
		return nil, fmt.Errorf("no such table: %q", name)
	}
	return t, nil
}

// Close unmaps the file. Tables obtained from the File must not be used
// after Close.
func (f *File) Close() error {
	f.tables = nil
	if !f.mapped {
		return nil
	}
	data := f.data
	f.data = nil
	f.mapped = false
	return unix.Munmap(data)
}

// Table resolves keys to values for one named table.
type Table struct {
	inline map[string]string

	gs     int32Section
	vs     int32Section
	keys   stringSection
	values stringSection
}

func newTable(data []byte, ti tableInfo) (*Table, error) {
	switch {
	case ti.Hash != nil && ti.Inline != nil:
		return nil, fmt.Errorf("both hash and inline representations present")
	case ti.Inline != nil:
		return &Table{inline: ti.Inline.Dct}, nil
	case ti.Hash != nil:
		gs, err := newInt32Section(data, ti.Hash.Gs)
		if err != nil {
			return nil, err
		}
		vs, err := newInt32Section(data, ti.Hash.Vs)
		if err != nil {
			return nil, err
		}
		keys, err := newStringSection(data, ti.Hash.Keys)
		if err != nil {
			return nil, err
		}
		values, err := newStringSection(data, ti.Hash.Values)
		if err != nil {
			return nil, err
		}
		return &Table{gs: gs, vs: vs, keys: keys, values: values}, nil
	default:
		return nil, fmt.Errorf("no table representation present")
	}
}

// Get returns the value for key, or ErrNotFound.
func (t *Table) Get(key string) (string, error) {
	if t.inline != nil {
		v, ok := t.inline[key]
		if !ok {
			return "", fmt.Errorf("%q: %w", key, ErrNotFound)
		}
		return v, nil
	}

	idx := lookupMinimalPerfectHash(t.gs.values, t.vs.values, []byte(key))
	if idx < 0 || int(idx) >= t.keys.len() {
		return "", fmt.Errorf("%q: %w", key, ErrNotFound)
	}
	tableKey, err := t.keys.at(int(idx))
	if err != nil {
		return "", err
	}
	// The perfect hash maps absent keys onto arbitrary slots; the stored key
	// disambiguates.
	if tableKey != key {
		return "", fmt.Errorf("%q: %w", key, ErrNotFound)
	}
	return t.values.at(int(idx))
}

type int32Section struct {
	values []int32
}

func newInt32Section(data []byte, si sectionInfo) (int32Section, error) {
	if si.Offset < 0 || si.Length < 0 || si.Offset+si.Length > int64(len(data)) {
		return int32Section{}, fmt.Errorf("section out of range: offset=%d length=%d size=%d", si.Offset, si.Length, len(data))
	}
	if si.Length%4 != 0 {
		return int32Section{}, fmt.Errorf("int32 section length %d not a multiple of 4", si.Length)
	}
	raw := data[si.Offset : si.Offset+si.Length]
	values := make([]int32, si.Length/4)
	for i := range values {
		values[i] = int32(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return int32Section{values: values}, nil
}

type stringSection struct {
	offsets int32Section
	bytes   []byte
}

func newStringSection(data []byte, si stringSectionInfo) (stringSection, error) {
	offsets, err := newInt32Section(data, si.Offsets)
	if err != nil {
		return stringSection{}, err
	}
	b := si.Bytes
	if b.Offset < 0 || b.Length < 0 || b.Offset+b.Length > int64(len(data)) {
		return stringSection{}, fmt.Errorf("bytes section out of range: offset=%d length=%d size=%d", b.Offset, b.Length, len(data))
	}
	return stringSection{offsets: offsets, bytes: data[b.Offset : b.Offset+b.Length]}, nil
}

func (s stringSection) len() int { return len(s.offsets.values) }

func (s stringSection) at(idx int) (string, error) {
	if idx < 0 || idx >= s.len() {
		return "", fmt.Errorf("string index %d out of range", idx)
	}
	start := int(s.offsets.values[idx])
	if start < 0 || start >= len(s.bytes) {
		return "", fmt.Errorf("string offset %d out of range", start)
	}
	end := bytes.IndexByte(s.bytes[start:], 0)
	if end < 0 {
		return "", fmt.Errorf("unterminated string at offset %d", start)
	}
	return string(s.bytes[start : start+end]), nil
}
