package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// DiskUploader stores media under Dir, which the router serves at /static/.
type DiskUploader struct {
	dir     string
	baseURL string
	logger  *log.Logger
	now     func() time.Time
}

func NewDiskUploader(dir, baseURL string, logger *log.Logger) (*DiskUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &DiskUploader{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
		now:     time.Now,
	}, nil
}

func (u *DiskUploader) Dir() string {
	return u.dir
}

func (u *DiskUploader) Upload(ctx context.Context, localPath string) (string, error) {
	defer func() {
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			u.logger.Warn("failed to remove temp upload", "path", localPath, "err", err)
		}
	}()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := storageKey(localPath, u.now())
	dst := filepath.Join(u.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	if err := os.Rename(localPath, dst); err != nil {
		// Temp dirs often live on another filesystem.
		if err := copyFile(localPath, dst); err != nil {
			return "", err
		}
	}

	return u.baseURL + "/" + key, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create media file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy media file: %w", err)
	}
	return out.Close()
}
