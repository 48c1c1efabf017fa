package reviews

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// CheckpointPrefix starts every automatically named checkpoint.
const CheckpointPrefix = "my_model_"

// checkpointIndex parses the numeric suffix of a checkpoint name.
func checkpointIndex(name string) (int, bool) {
	if !strings.HasPrefix(name, CheckpointPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(name[len(CheckpointPrefix):])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// NextCheckpointName returns my_model_<N> for the lowest N not used by any
// of names. Names that do not follow the pattern are ignored.
func NextCheckpointName(names []string) string {
	used := make(map[int]bool, len(names))
	for _, name := range names {
		if n, ok := checkpointIndex(name); ok {
			used[n] = true
		}
	}
	n := 0
	for used[n] {
		n++
	}
	return CheckpointPrefix + strconv.Itoa(n)
}

// AllocateCheckpoint creates and returns the directory for the next free
// checkpoint under dir. The directory is created with an exclusive mkdir so
// two concurrent allocations never receive the same name.
func AllocateCheckpoint(dir string) (string, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}

	for {
		name := NextCheckpointName(names)
		path := filepath.Join(dir, name)
		err := os.Mkdir(path, os.ModePerm)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("allocate checkpoint: %w", err)
		}
		// Lost a race for this slot; treat it as used and try the next one.
		names = append(names, name)
	}
}

// SaveModel writes model to path, or to a newly allocated checkpoint under
// dir when path is empty. It returns the path written.
// A checkpoint allocated here is removed again if the write fails.
func SaveModel(model *Model, dir, path string) (string, error) {
	allocated := false
	if path == "" {
		var err error
		path, err = AllocateCheckpoint(dir)
		if err != nil {
			return "", err
		}
		allocated = true
	}
	if model.Name == "" {
		model.Name = filepath.Base(path)
	}
	if err := model.Write(path); err != nil {
		if allocated {
			os.RemoveAll(path)
		}
		return "", fmt.Errorf("save model to %s: %w", path, err)
	}
	return path, nil
}
