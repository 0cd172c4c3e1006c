package jsonfile

import (
	"context"
	"fmt"
	"os"
)

// Dir is a data directory. It reports healthy when it exists and accepts writes.
type Dir string

func (d Dir) PingContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(string(d))
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", d)
	}

	probe, err := os.CreateTemp(string(d), ".ping-*")
	if err != nil {
		return fmt.Errorf("data directory is not writable: %w", err)
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}
