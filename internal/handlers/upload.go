package handlers

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// saveUploadedFile stores a multipart file under dir with a uuid name and
// returns the public URL. dir must be below ./static.
func saveUploadedFile(c *gin.Context, file *multipart.FileHeader, dir string) (string, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("could not create upload directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	newFileName := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	filePath := filepath.Join(dir, newFileName)

	if err := c.SaveUploadedFile(file, filePath); err != nil {
		return "", fmt.Errorf("could not save file: %w", err)
	}

	return "/" + filepath.ToSlash(strings.TrimPrefix(filePath, "./")), nil
}

// fileTypeForExt buckets an extension into image / video / file for the
// attachment viewers on the dashboards.
func fileTypeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return "image"
	case ".mp4", ".webm", ".mov", ".ogg":
		return "video"
	default:
		return "file"
	}
}
