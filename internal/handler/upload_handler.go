package handler

import (
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

const thumbnailMaxEdge = 320

// UploadImage 处理植物图片上传，保存原图并生成缩略图
func (a *API) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传的图片", "success": 0})
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "只允许上传图片文件", "success": 0})
		return
	}

	if err := os.MkdirAll(a.uploadDir, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建上传目录失败", "success": 0})
		return
	}

	ext := filepath.Ext(file.Filename)
	newFilename := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)
	filePath := filepath.Join(a.uploadDir, newFilename)

	if err := c.SaveUploadedFile(file, filePath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存文件失败", "success": 0})
		return
	}

	fileURL := fmt.Sprintf("%s/%s", strings.TrimRight(a.uploadURL, "/"), newFilename)
	payload := gin.H{
		"success": 1,
		"message": "上传成功",
		"data": gin.H{
			"filePath": fileURL,
			"url":      fileURL,
		},
	}

	// 缩略图失败不影响原图上传
	if thumbName, err := writeThumbnail(filePath, a.uploadDir, newFilename); err == nil {
		payload["data"].(gin.H)["thumbnail"] = fmt.Sprintf("%s/%s", strings.TrimRight(a.uploadURL, "/"), thumbName)
	} else {
		c.Error(err)
	}

	c.JSON(http.StatusOK, payload)
}

// writeThumbnail 按最长边等比缩放生成 JPEG 缩略图，返回缩略图文件名
func writeThumbnail(sourcePath, uploadDir, filename string) (string, error) {
	source, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("open uploaded image: %w", err)
	}
	defer source.Close()

	img, _, err := image.Decode(source)
	if err != nil {
		return "", fmt.Errorf("decode uploaded image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return "", fmt.Errorf("invalid image size %dx%d", width, height)
	}

	scale := float64(thumbnailMaxEdge) / float64(max(width, height))
	if scale >= 1 {
		scale = 1
	}
	thumbWidth := int(float64(width) * scale)
	thumbHeight := int(float64(height) * scale)

	thumb := image.NewRGBA(image.Rect(0, 0, thumbWidth, thumbHeight))
	draw.CatmullRom.Scale(thumb, thumb.Bounds(), img, bounds, draw.Over, nil)

	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	thumbName := base + "_thumb.jpg"
	out, err := os.Create(filepath.Join(uploadDir, thumbName))
	if err != nil {
		return "", fmt.Errorf("create thumbnail: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, thumb, &jpeg.Options{Quality: 82}); err != nil {
		return "", fmt.Errorf("encode thumbnail: %w", err)
	}
	return thumbName, nil
}
