package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/subelo/subelo/internal/quota"
)

func (a *API) adminListFiles(c *gin.Context) {
	files, err := a.store.ListAllFiles()
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

type adminUpdateFileRequest struct {
	Name       *string    `json:"name"`
	CustomLink *string    `json:"custom_link"`
	ExpiresAt  *time.Time `json:"expires_at"`
}

// adminUpdateFile applies looser semantics than the owner path: no
// quota checks and no expiry clamp. Admins bypass quotas on purpose;
// slug format and global uniqueness still hold because a broken or
// duplicate link would be broken for everyone.
func (a *API) adminUpdateFile(c *gin.Context) {
	file, err := a.store.GetFile(c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}

	var req adminUpdateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			a.respondError(c, &quota.ValidationError{Msg: "file name cannot be empty"})
			return
		}
		if err := a.store.RenameFile(file.ID, name); err != nil {
			a.respondError(c, err)
			return
		}
	}

	if req.CustomLink != nil {
		slug := *req.CustomLink
		if slug != "" {
			if err := quota.ValidateSlug(slug); err != nil {
				a.respondError(c, err)
				return
			}
			taken, err := a.store.CustomLinkTaken(slug, file.ID)
			if err != nil {
				a.respondError(c, err)
				return
			}
			if taken {
				a.respondError(c, &quota.ConflictError{Msg: "Custom link already in use"})
				return
			}
		}
		if err := a.store.SetCustomLink(file.ID, slug); err != nil {
			a.respondError(c, err)
			return
		}
	}

	if req.ExpiresAt != nil {
		if err := a.store.SetExpiration(file.ID, *req.ExpiresAt); err != nil {
			a.respondError(c, err)
			return
		}
	}

	updated, err := a.store.GetFile(file.ID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type blockRequest struct {
	Message string `json:"message"`
}

func (a *API) adminBlockFile(c *gin.Context) {
	file, err := a.store.GetFile(c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}

	var req blockRequest
	_ = c.ShouldBindJSON(&req)

	if err := a.store.SetBlocked(file.ID, true, req.Message); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File blocked"})
}

func (a *API) adminUnblockFile(c *gin.Context) {
	file, err := a.store.GetFile(c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}

	if err := a.store.SetBlocked(file.ID, false, ""); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File unblocked"})
}

func (a *API) adminDeleteFile(c *gin.Context) {
	file, err := a.store.GetFile(c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}

	if err := a.store.DeleteFile(file.ID); err != nil {
		a.respondError(c, err)
		return
	}
	if err := a.blobs.Delete(file.StorageKey); err != nil {
		a.logger.Printf("blob delete failed for file %s: %v", file.ID, err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "File deleted"})
}
