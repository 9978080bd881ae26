package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/denxi342/discord-bot-dashboard/models"

	"github.com/google/uuid"
)

const maxAttachmentSize = 20 * 1024 * 1024

// AttachmentStorage saves uploaded DM attachments under a local base path and
// hands back the public descriptor stored on the message row.
type AttachmentStorage struct {
	basePath string
	baseURL  string
}

func NewAttachmentStorage(basePath, baseURL string) *AttachmentStorage {
	os.MkdirAll(basePath, 0755)
	return &AttachmentStorage{basePath: basePath, baseURL: strings.TrimRight(baseURL, "/")}
}

// SaveAttachment writes the uploaded file under <base>/<userID>/ with a
// collision-free name and returns its {url, filename, kind} descriptor.
func (s *AttachmentStorage) SaveAttachment(userID uint, file multipart.File, header *multipart.FileHeader) (*models.Attachment, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !isAllowedExt(ext) {
		return nil, fmt.Errorf("file type %q is not allowed", ext)
	}
	if header.Size > maxAttachmentSize {
		return nil, fmt.Errorf("file too large. Maximum size is 20MB")
	}

	userDir := filepath.Join(s.basePath, strconv.Itoa(int(userID)))
	if err := os.MkdirAll(userDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	name := fmt.Sprintf("%d_%s%s", time.Now().Unix(), uuid.NewString()[:8], ext)
	dst, err := os.Create(filepath.Join(userDir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	return &models.Attachment{
		URL:      fmt.Sprintf("%s/%d/%s", s.baseURL, userID, name),
		Filename: header.Filename,
		Kind:     kindForExt(ext),
	}, nil
}

func isAllowedExt(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp",
		".mp3", ".ogg", ".mp4", ".webm",
		".txt", ".pdf", ".zip", ".rar", ".7z":
		return true
	}
	return false
}

func kindForExt(ext string) string {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return "image"
	}
	return "file"
}
