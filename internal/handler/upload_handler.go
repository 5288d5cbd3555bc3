package handler

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

const maxImageUploadBytes = 10 << 20

var imageExtensions = map[string]string{
	"png":  ".png",
	"jpeg": ".jpg",
	"gif":  ".gif",
	"webp": ".webp",
}

// UploadImage 处理图片组件使用的图片上传，返回可直接填入 imageUrl 的地址。
func (a *API) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "未找到上传的图片")
		return
	}
	if file.Size > maxImageUploadBytes {
		respondError(c, http.StatusBadRequest, "图片不能超过 10MB")
		return
	}

	// 以文件头为准判断格式，而不是相信客户端提供的 Content-Type
	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "无法读取上传的图片")
		return
	}
	cfg, format, err := image.DecodeConfig(src)
	src.Close()
	if err != nil {
		respondError(c, http.StatusBadRequest, "只允许上传 PNG、JPEG、GIF 或 WebP 图片")
		return
	}
	ext, ok := imageExtensions[format]
	if !ok {
		respondError(c, http.StatusBadRequest, "只允许上传 PNG、JPEG、GIF 或 WebP 图片")
		return
	}

	if err := os.MkdirAll(a.uploadDir, 0o755); err != nil {
		respondError(c, http.StatusInternalServerError, "创建上传目录失败")
		return
	}

	newFilename := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)
	if err := c.SaveUploadedFile(file, filepath.Join(a.uploadDir, newFilename)); err != nil {
		respondError(c, http.StatusInternalServerError, "保存文件失败")
		return
	}

	fileURL := path.Join("/", strings.Trim(a.uploadURL, "/"), newFilename)
	c.JSON(http.StatusOK, gin.H{
		"url":    fileURL,
		"width":  cfg.Width,
		"height": cfg.Height,
		"format": format,
	})
}
