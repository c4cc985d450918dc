package stream

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// frameExt is the file extension used by replay frame captures.
const frameExt = ".vgr"

// frameFile is one on-disk frame, keyed by the numeric suffix in its name.
// Frame files are named <replay>.<index>.vgr.
type frameFile struct {
	path  string
	index int
}

// ListReplays returns the replay names that have a first frame
// (<name>.0.vgr) in dir, sorted lexically.
func ListReplays(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.0"+frameExt))
	if err != nil {
		return nil, fmt.Errorf("list replays: %w", err)
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		base := strings.TrimSuffix(filepath.Base(m), ".0"+frameExt)
		names = append(names, base)
	}
	sort.Strings(names)
	return names, nil
}

// LoadDir reads every frame file of the named replay from dir, orders them
// by numeric suffix, and assembles the logical stream.
//
// Frame files are read in parallel: each goroutine writes into its own slot
// of the frames slice, so the only synchronization point is the final
// concatenation inside Assemble. The first read error wins; remaining reads
// still complete but their results are discarded.
func LoadDir(dir, name string) (*Stream, error) {
	files, err := frameFiles(dir, name)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s frames found for replay %q in %s", frameExt, name, dir)
	}

	frames := make([][]byte, len(files))
	errs := make([]error, len(files))

	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func(slot int, path string) {
			defer wg.Done()
			data, readErr := os.ReadFile(path)
			if readErr != nil {
				errs[slot] = fmt.Errorf("read frame %s: %w", filepath.Base(path), readErr)
				return
			}
			frames[slot] = data
		}(i, f.path)
	}
	wg.Wait()

	for _, readErr := range errs {
		if readErr != nil {
			return nil, readErr
		}
	}

	return Assemble(frames), nil
}

// frameFiles resolves and orders the frame files for one replay.
// Files whose suffix is not a plain integer are ignored; they are not part
// of the capture sequence (manifests, backups, partial downloads).
func frameFiles(dir, name string) ([]frameFile, error) {
	matches, err := filepath.Glob(filepath.Join(dir, name+".*"+frameExt))
	if err != nil {
		return nil, fmt.Errorf("glob frames: %w", err)
	}

	files := make([]frameFile, 0, len(matches))
	for _, m := range matches {
		base := strings.TrimSuffix(filepath.Base(m), frameExt)
		suffix := base[strings.LastIndex(base, ".")+1:]
		idx, convErr := strconv.Atoi(suffix)
		if convErr != nil {
			continue
		}
		files = append(files, frameFile{path: m, index: idx})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].index < files[j].index })
	return files, nil
}
