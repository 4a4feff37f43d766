package repository

import (
    "bufio"
    "fmt"
    "io"
    "os"
    "path/filepath"
)

// writeAtomic streams fill into a temporary file next to path and renames it
// into place, so readers never observe a partially written artifact.
func writeAtomic(path string, fill func(w io.Writer) error) (err error) {
    dir := filepath.Dir(path)
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("create output dir: %w", err)
    }
    tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
    if err != nil {
        return fmt.Errorf("create temp file: %w", err)
    }
    defer func() {
        if err != nil {
            _ = tmp.Close()
            _ = os.Remove(tmp.Name())
        }
    }()

    bw := bufio.NewWriter(tmp)
    if err = fill(bw); err != nil {
        return err
    }
    if err = bw.Flush(); err != nil {
        return fmt.Errorf("flush %s: %w", path, err)
    }
    if err = tmp.Sync(); err != nil {
        return fmt.Errorf("sync %s: %w", path, err)
    }
    if err = tmp.Close(); err != nil {
        return fmt.Errorf("close %s: %w", path, err)
    }
    if err = os.Chmod(tmp.Name(), 0o644); err != nil {
        return fmt.Errorf("chmod %s: %w", path, err)
    }
    if err = os.Rename(tmp.Name(), path); err != nil {
        return fmt.Errorf("rename %s: %w", path, err)
    }
    return nil
}
