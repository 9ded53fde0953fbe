package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/subelo/subelo/internal/quota"
	"github.com/subelo/subelo/internal/store"
)

func (a *API) listFiles(c *gin.Context) {
	user := currentUser(c)
	files, err := a.store.ListFilesByUser(user.ID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

// ownedFile loads a file and hides it behind a generic 404 when the
// caller does not own it.
func (a *API) ownedFile(c *gin.Context, user *store.User) *store.File {
	file, err := a.store.GetFile(c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return nil
	}
	if file.UserID == "" || file.UserID != user.ID {
		notFound(c)
		return nil
	}
	return file
}

type updateFileRequest struct {
	Name       *string    `json:"name"`
	Password   *string    `json:"password"`    // empty string removes the password
	CustomLink *string    `json:"custom_link"` // empty string clears the link
	ExpiresAt  *time.Time `json:"expires_at"`
	FolderID   *string    `json:"folder_id"` // empty string detaches
	Tags       *[]string  `json:"tags"`
}

// updateFile applies owner mutations. Every gate runs against a usage
// recount taken at request time before the first write, so a request
// that fails any gate changes nothing. The recount and the writes are
// still separate round-trips, which is the accepted race.
func (a *API) updateFile(c *gin.Context) {
	user := currentUser(c)
	file := a.ownedFile(c, user)
	if file == nil {
		return
	}

	var req updateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	now := time.Now()
	p := user.EffectivePlan(now)
	limits := p.Limits()

	usage, err := a.store.Usage(user.ID)
	if err != nil {
		a.respondError(c, err)
		return
	}

	var name string
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" {
			a.respondError(c, &quota.ValidationError{Msg: "file name cannot be empty"})
			return
		}
		if len(name) > 255 {
			a.respondError(c, &quota.ValidationError{Msg: "file name cannot exceed 255 characters"})
			return
		}
	}

	// Removing protection is always free; only setting one is gated.
	if req.Password != nil && *req.Password != "" {
		if err := quota.CheckAddPassword(p, limits, usage, file.HasPassword()); err != nil {
			a.respondError(c, err)
			return
		}
	}

	// Clearing a link is always free. A new slug passes format, then
	// global uniqueness, then the link quota, in that order.
	if req.CustomLink != nil && *req.CustomLink != "" {
		slug := *req.CustomLink
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
		if err := quota.CheckCustomLink(p, limits, usage, file.CustomLink != ""); err != nil {
			a.respondError(c, err)
			return
		}
	}

	if req.FolderID != nil && *req.FolderID != "" {
		folder, err := a.store.GetFolder(*req.FolderID)
		if err != nil || folder.UserID != user.ID {
			notFound(c)
			return
		}
	}

	if req.Tags != nil {
		if err := quota.CheckTags(p, limits, *req.Tags); err != nil {
			a.respondError(c, err)
			return
		}
	}

	// All gates passed; apply the writes.
	if req.Name != nil {
		if err := a.store.RenameFile(file.ID, name); err != nil {
			a.respondError(c, err)
			return
		}
	}

	if req.Password != nil {
		hash := ""
		if *req.Password != "" {
			h, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
			if err != nil {
				a.respondError(c, err)
				return
			}
			hash = string(h)
		}
		if err := a.store.SetPassword(file.ID, hash); err != nil {
			a.respondError(c, err)
			return
		}
	}

	if req.CustomLink != nil {
		if err := a.store.SetCustomLink(file.ID, *req.CustomLink); err != nil {
			a.respondError(c, err)
			return
		}
	}

	if req.ExpiresAt != nil {
		// Only an earlier, still-future date is honored; anything
		// else leaves the stored expiration untouched, no error.
		next := quota.NextExpiration(file.ExpiresAt, *req.ExpiresAt, now)
		if !next.Equal(file.ExpiresAt) {
			if err := a.store.SetExpiration(file.ID, next); err != nil {
				a.respondError(c, err)
				return
			}
		}
	}

	if req.FolderID != nil {
		if err := a.store.SetFolder(file.ID, *req.FolderID); err != nil {
			a.respondError(c, err)
			return
		}
	}

	if req.Tags != nil {
		if err := a.store.SetTags(file.ID, *req.Tags); err != nil {
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

// deleteFile removes the record and then the blob. The storage delete
// is best effort: a failure is logged and the metadata stays gone, an
// orphaned blob is the accepted outcome.
func (a *API) deleteFile(c *gin.Context) {
	user := currentUser(c)
	file := a.ownedFile(c, user)
	if file == nil {
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
