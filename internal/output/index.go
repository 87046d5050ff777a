package output

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// IndexFile is the re-export index kept in every definition directory.
const IndexFile = "index.ts"

var entryPattern = regexp.MustCompile(`^export\s+(?:type\s+)?\{\s*([A-Za-z_$][\w$]*)\s*\}\s+from\s+['"]([^'"]+)['"];?\s*$`)

type indexLine struct {
	raw    string
	name   string
	module string
}

// Index is an ordered mapping of type name to module path. Lines that are
// not single-name re-exports are kept verbatim.
type Index struct {
	lines []indexLine
	names map[string]int
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{names: map[string]int{}}
}

// ParseIndex reads index source.
func ParseIndex(data []byte) *Index {
	idx := NewIndex()
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if m := entryPattern.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			if _, dup := idx.names[m[1]]; !dup {
				idx.names[m[1]] = len(idx.lines)
				idx.lines = append(idx.lines, indexLine{name: m[1], module: m[2]})
				continue
			}
		}
		idx.lines = append(idx.lines, indexLine{raw: line})
	}
	return idx
}

// LoadIndex reads the index at path. A missing file is an empty index.
func LoadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewIndex(), nil
	}
	if err != nil {
		return nil, err
	}
	return ParseIndex(data), nil
}

// Lookup returns the module name is registered to.
func (x *Index) Lookup(name string) (string, bool) {
	i, ok := x.names[name]
	if !ok {
		return "", false
	}
	return x.lines[i].module, true
}

// Len is the number of registered names.
func (x *Index) Len() int { return len(x.names) }

// Register maps name to module. It reports whether the index changed: an
// entry already pointing at module is left alone, one pointing elsewhere is
// repointed in place.
func (x *Index) Register(name, module string) bool {
	if i, ok := x.names[name]; ok {
		if x.lines[i].module == module {
			return false
		}
		x.lines[i].module = module
		return true
	}
	x.names[name] = len(x.lines)
	x.lines = append(x.lines, indexLine{name: name, module: module})
	return true
}

// Bytes renders the index.
func (x *Index) Bytes() []byte {
	var b bytes.Buffer
	for _, l := range x.lines {
		if l.name == "" {
			b.WriteString(l.raw)
		} else {
			fmt.Fprintf(&b, "export type { %s } from '%s';", l.name, l.module)
		}
		b.WriteByte('\n')
	}
	return b.Bytes()
}

// moduleFor is the specifier an index uses for a file in its directory.
func moduleFor(file string) string {
	base := filepath.Base(file)
	return "./" + strings.TrimSuffix(base, filepath.Ext(base))
}
