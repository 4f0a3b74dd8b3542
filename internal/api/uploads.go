package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// upload accepts a multipart file and stores it under the media subdirectory
// matching the upload type
func (r *Router) upload(c *gin.Context) {
	var subdir string
	switch c.Param("type") {
	case "cover":
		subdir = "posts/covers"
	case "step":
		subdir = "posts/steps"
	case "avatar":
		subdir = "users/avatars"
	default:
		subdir = "misc"
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	f, err := header.Open()
	if err != nil {
		abortWithError(c, err)
		return
	}
	defer f.Close()

	publicURL, err := r.files.Store(header.Filename, f, subdir)
	if err != nil {
		r.logger.Warn("upload rejected",
			zap.String("filename", header.Filename), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": publicURL})
}
