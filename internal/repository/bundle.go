package repository

import (
    "context"
    "fmt"
    "io"
    "os"
    "path/filepath"
    "time"

    "github.com/klauspost/compress/zip"

    "MarketWatch/pkg/logger"
    "MarketWatch/pkg/util"
)

// Bundler packs the run artifacts into <dir>/<prefix>-YYYY-MM-DD.zip.
type Bundler struct {
    dir    string
    prefix string
    log    *logger.Logger
}

func NewBundler(dir, prefix string, log *logger.Logger) *Bundler {
    return &Bundler{dir: dir, prefix: prefix, log: log.With("bundle")}
}

// Bundle zips files (stored flat, by base name) and returns the archive path.
func (b *Bundler) Bundle(ctx context.Context, date time.Time, files []string) (string, error) {
    path := filepath.Join(b.dir, fmt.Sprintf("%s-%s.zip", b.prefix, util.FormatDate(date)))
    err := writeAtomic(path, func(out io.Writer) error {
        zw := zip.NewWriter(out)
        for _, name := range files {
            if err := ctx.Err(); err != nil {
                return err
            }
            if err := addFile(zw, name); err != nil {
                return fmt.Errorf("bundle %s: %w", name, err)
            }
        }
        return zw.Close()
    })
    if err != nil {
        return "", err
    }
    b.log.Info("bundle written", logger.String("path", path), logger.Int("files", len(files)))
    return path, nil
}

func addFile(zw *zip.Writer, name string) error {
    f, err := os.Open(name)
    if err != nil {
        return err
    }
    defer f.Close()

    info, err := f.Stat()
    if err != nil {
        return err
    }
    hdr, err := zip.FileInfoHeader(info)
    if err != nil {
        return err
    }
    hdr.Name = filepath.Base(name)
    hdr.Method = zip.Deflate

    w, err := zw.CreateHeader(hdr)
    if err != nil {
        return err
    }
    _, err = io.Copy(w, f)
    return err
}
