package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"islebuild.ai/internal/sim/world"
)

// BuildFiles lists the BUILD request files in requestsDir, oldest hour first.
func BuildFiles(requestsDir string) ([]string, error) {
	return kindFiles(requestsDir, "build")
}

func kindFiles(dir, kind string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, kind+"-") || !strings.HasSuffix(name, fileExt) {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	// Hour stamps sort lexically.
	sort.Strings(out)
	return out, nil
}

// EntryPos locates an entry for error messages.
type EntryPos struct {
	File string
	Line int
}

func (p EntryPos) String() string { return fmt.Sprintf("%s:%d", filepath.Base(p.File), p.Line) }

// ReadRequests decodes every entry of the given files in order and hands
// it to fn. It stops at the first error from fn.
func ReadRequests(files []string, fn func(EntryPos, world.RequestLogEntry) error) error {
	for _, path := range files {
		if err := readFile(path, fn); err != nil {
			return err
		}
	}
	return nil
}

func readFile(path string, fn func(EntryPos, world.RequestLogEntry) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	zr, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	defer zr.Close()

	sc := bufio.NewScanner(zr)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	pos := EntryPos{File: path}
	for sc.Scan() {
		pos.Line++
		var e world.RequestLogEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return fmt.Errorf("%s: %w", pos, err)
		}
		if err := fn(pos, e); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}
