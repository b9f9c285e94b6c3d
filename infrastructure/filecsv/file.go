package filecsv

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"omnipost/domain/model"
	"omnipost/infrastructure/logger"
)

var postHeader = []string{"post_id", "created_at", "status", "platform", "attempt_status", "attempted_at", "error", "content"}

// NewFile creates (or truncates) the export file, making parent directories as needed.
func NewFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while open file")
		return nil, err
	}
	return file, nil
}

// WritePosts writes one row per attempt. Posts with no attempts yet get a single row
// per target with an empty attempt status.
func WritePosts(w io.Writer, posts []model.PostDraft) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(postHeader); err != nil {
		return err
	}
	for _, p := range posts {
		created := p.CreatedAt.Format(time.RFC3339)
		if len(p.Attempts) == 0 {
			for _, target := range p.Targets {
				if err := cw.Write([]string{p.ID, created, string(p.Status), string(target), "", "", "", p.ContentFor(target)}); err != nil {
					return err
				}
			}
			continue
		}
		for _, a := range p.Attempts {
			errText := ""
			if a.ErrorMessage != nil {
				errText = *a.ErrorMessage
			}
			row := []string{
				p.ID, created, string(p.Status), string(a.Platform), string(a.Status),
				a.AttemptedAt.Format(time.RFC3339), errText, strings.TrimSpace(p.ContentFor(a.Platform)),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportPosts writes the post history to path.
func ExportPosts(path string, posts []model.PostDraft) error {
	file, err := NewFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WritePosts(file, posts); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while writing csv")
		return err
	}
	logger.GetLogger().WithFields(map[string]interface{}{"path": path, "posts": len(posts)}).Info("Exported posts")
	return nil
}
