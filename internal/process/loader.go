package process

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"procagent/internal/logging"
	"procagent/internal/types"
)

// maxParallelReads bounds concurrent file reads while loading a directory.
const maxParallelReads = 8

// LoadFile reads and hydrates one process document.
func LoadFile(path string) (*types.Process, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read process %s: %w", path, err)
	}
	p, err := Hydrate(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// LoadDir hydrates every *.json process document in dir. When validator is
// non-nil, invalid documents fail the whole load. The result is ordered by
// file name.
func LoadDir(ctx context.Context, dir string, validator *Validator) ([]*types.Process, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logging.ProcessWarn("process directory %s does not exist", dir)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read process directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	processes := make([]*types.Process, len(paths))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxParallelReads)
	for i, path := range paths {
		i, path := i, path
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			p, err := LoadFile(path)
			if err != nil {
				return err
			}
			if validator != nil {
				if errs := validator.Validate(p); len(errs) > 0 {
					return fmt.Errorf("%s: invalid process: %s", path, strings.Join(errs, "; "))
				}
			}
			processes[i] = p
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	logging.Process("loaded %d processes from %s", len(processes), dir)
	return processes, nil
}

// LoadRegistry loads dir into a new registry.
func LoadRegistry(ctx context.Context, dir string, validator *Validator) (*Registry, error) {
	processes, err := LoadDir(ctx, dir, validator)
	if err != nil {
		return nil, err
	}
	return NewRegistry(processes...)
}
