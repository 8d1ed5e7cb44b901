package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gs52g/deskchat/internal/upstream"
)

// imageExtensions is the allow-list for the sample gallery listing.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Upload proxies an image upload to the platform. Content type is
// sniffed from the bytes, not trusted from the client.
func (h *Handlers) Upload(c *gin.Context) {
	if !h.requireKey(c, "MISO_API_KEY", h.cfg.Upstream.UploadKey) {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "파일이 제공되지 않았습니다.",
			"detail": "요청에 파일을 포함해주세요.",
		})
		return
	}
	defer file.Close()

	if header.Size > h.cfg.Upload.MaxBytes {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "파일 크기 초과",
			"detail": "파일 크기는 10MB를 초과할 수 없습니다.",
		})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.Upload.MaxBytes+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "내부 서버 오류",
			"detail": err.Error(),
		})
		return
	}
	if int64(len(data)) > h.cfg.Upload.MaxBytes {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "파일 크기 초과",
			"detail": "파일 크기는 10MB를 초과할 수 없습니다.",
		})
		return
	}

	if !strings.HasPrefix(mimetype.Detect(data).String(), "image/") {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "지원되지 않는 파일 형식입니다.",
			"detail": "이미지 파일만 업로드 가능합니다.",
		})
		return
	}

	user := c.Request.FormValue("user")
	resp, err := h.miso.PostFile(c.Request.Context(), h.cfg.Upstream.UploadKey, upstream.PathUpload, header.Filename, bytes.NewReader(data), user)
	if err != nil {
		h.log.Error("upstream upload failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "내부 서버 오류",
			"detail": err.Error(),
		})
		return
	}

	if !resp.OK() {
		detail := fmt.Sprintf("HTTP %d: 파일 업로드에 실패했습니다.", resp.Status)
		if msg, ok := resp.Body["message"].(string); ok && msg != "" {
			detail = msg
		}
		c.JSON(resp.Status, gin.H{
			"error":  "파일 업로드 실패",
			"detail": detail,
			"status": resp.Status,
		})
		return
	}
	c.JSON(resp.Status, resp.Body)
}

type sampleImage struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
}

// SampleImages lists the local sample gallery. A missing directory is
// an empty gallery, not an error.
func (h *Handlers) SampleImages(c *gin.Context) {
	entries, err := os.ReadDir(h.cfg.Samples.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusOK, []sampleImage{})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "샘플 이미지 목록을 가져올 수 없습니다.",
			"detail": err.Error(),
		})
		return
	}

	images := make([]sampleImage, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		images = append(images, sampleImage{
			ID:        fmt.Sprintf("sample-%d", len(images)+1),
			Name:      entry.Name(),
			URL:       "/sample-images/" + entry.Name(),
			Thumbnail: "/sample-images/" + entry.Name(),
		})
	}
	c.JSON(http.StatusOK, images)
}
