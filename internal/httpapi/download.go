package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/subelo/subelo/internal/store"
)

// shareInfo resolves a public share reference (custom slug or file id).
// Expired files are indistinguishable from missing ones; blocked files
// surface the administrative message. Unprotected files get their
// download URL straight away.
func (a *API) shareInfo(c *gin.Context) {
	file := a.resolveShare(c)
	if file == nil {
		return
	}

	if file.HasPassword() {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":     "Password required",
			"name":      file.Name,
			"size":      file.Size,
			"protected": true,
		})
		return
	}

	a.serveDownload(c, file)
}

type shareDownloadRequest struct {
	Password string `json:"password"`
}

// shareDownload verifies the password on a protected share and hands
// out the download URL.
func (a *API) shareDownload(c *gin.Context) {
	file := a.resolveShare(c)
	if file == nil {
		return
	}

	if file.HasPassword() {
		var req shareDownloadRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Password required"})
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(file.PasswordHash), []byte(req.Password)) != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "Incorrect password"})
			return
		}
	}

	a.serveDownload(c, file)
}

func (a *API) resolveShare(c *gin.Context) *store.File {
	file, err := a.store.GetFileByRef(c.Param("ref"))
	if err != nil {
		a.respondError(c, err)
		return nil
	}
	if file.Expired(time.Now()) {
		notFound(c)
		return nil
	}
	if file.Blocked {
		msg := file.BlockedMessage
		if msg == "" {
			msg = "This file has been blocked"
		}
		c.JSON(http.StatusForbidden, gin.H{"error": msg})
		return nil
	}
	return file
}

func (a *API) serveDownload(c *gin.Context, file *store.File) {
	url, err := a.blobs.PresignDownload(file.StorageKey, file.Name)
	if err != nil {
		a.respondError(c, err)
		return
	}

	if err := a.store.IncrementDownloads(file.ID); err != nil {
		a.logger.Printf("failed to count download for %s: %v", file.ID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"name":         file.Name,
		"size":         file.Size,
		"content_type": file.ContentType,
		"download_url": url,
	})
}
