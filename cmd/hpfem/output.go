package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// writeFile creates name in dir and fills it with write.
func writeFile(log *zap.Logger, dir, name string, write func(w io.Writer) error) error {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return fmt.Errorf("failed to write %v: %w", path, err)
	}
	log.Info("wrote output", zap.String("path", path))
	return f.Close()
}
