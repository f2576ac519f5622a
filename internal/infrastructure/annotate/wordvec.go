package annotate

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// VectorTable is an in-memory word embedding table loaded from the
// word2vec text format. Lookups are case-insensitive and read-only
// after load.
type VectorTable struct {
	dim     int
	vectors map[string][]float32
}

// LoadVectorTable reads a word2vec text file: an optional "count dim"
// header line followed by one "word v1 v2 ... vN" line per word. Rows
// whose dimension disagrees with the first row are skipped.
func LoadVectorTable(path string) (*VectorTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vector table: %w", err)
	}
	defer f.Close()

	table := &VectorTable{vectors: make(map[string][]float32)}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	first := true
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if first {
			first = false
			// Header line: two integers, no word.
			if len(fields) == 2 {
				if _, err := strconv.Atoi(fields[0]); err == nil {
					if dim, err := strconv.Atoi(fields[1]); err == nil {
						table.dim = dim
						continue
					}
				}
			}
		}
		word := strings.ToLower(fields[0])
		values := fields[1:]
		if table.dim == 0 {
			table.dim = len(values)
		}
		if len(values) != table.dim || table.dim == 0 {
			continue
		}
		vec := make([]float32, table.dim)
		ok := true
		for i, raw := range values {
			v, err := strconv.ParseFloat(raw, 32)
			if err != nil {
				ok = false
				break
			}
			vec[i] = float32(v)
		}
		if !ok {
			continue
		}
		table.vectors[word] = vec
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vector table: %w", err)
	}
	if len(table.vectors) == 0 {
		return nil, fmt.Errorf("vector table %s: no usable rows", path)
	}
	return table, nil
}

// Lookup returns the vector for a lowercased word, or nil.
func (t *VectorTable) Lookup(word string) []float32 {
	return t.vectors[strings.ToLower(word)]
}

// Len returns the number of words in the table.
func (t *VectorTable) Len() int { return len(t.vectors) }

// Dim returns the embedding dimensionality.
func (t *VectorTable) Dim() int { return t.dim }
