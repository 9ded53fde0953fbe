package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/subelo/subelo/internal/plan"
	"github.com/subelo/subelo/internal/quota"
	"github.com/subelo/subelo/internal/store"
)

type initUploadRequest struct {
	Name        string `json:"name" binding:"required"`
	Size        int64  `json:"size" binding:"required"`
	ContentType string `json:"content_type"`
	CustomLink  string `json:"custom_link"`
}

// initUpload is the upload-admission gate for the web path. With a
// session the owner's plan applies; without one the request is a guest
// upload under the guest tier. Slug validation runs in the mandated
// order: format, reserved names, global uniqueness, then link quota.
func (a *API) initUpload(c *gin.Context) {
	a.handleInitUpload(c, currentUser(c))
}

// apiInitUpload additionally consumes the daily upload window before
// admission. The hourly request counter was already charged by the
// key middleware.
func (a *API) apiInitUpload(c *gin.Context) {
	user := currentUser(c)
	now := time.Now()
	limits := user.EffectivePlan(now).Limits()

	upWindow, err := quota.AllowUpload(limits, user.APIUploads, now)
	if err != nil {
		a.respondError(c, err)
		return
	}
	reqWindow := c.MustGet(ctxReqWindow).(quota.Window)
	if err := a.store.UpdateAPIWindows(user.ID, reqWindow, upWindow); err != nil {
		a.respondError(c, err)
		return
	}

	a.handleInitUpload(c, user)
}

func (a *API) handleInitUpload(c *gin.Context, user *store.User) {
	var req initUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	now := time.Now()
	userID := ""
	p := plan.Guest
	if user != nil {
		userID = user.ID
		p = user.EffectivePlan(now)
	}
	limits := p.Limits()

	usage, err := a.store.Usage(userID)
	if err != nil {
		a.respondError(c, err)
		return
	}

	// Format errors win over uniqueness, uniqueness over quota.
	if req.CustomLink != "" {
		if err := quota.ValidateSlug(req.CustomLink); err != nil {
			a.respondError(c, err)
			return
		}
		taken, err := a.store.CustomLinkTaken(req.CustomLink, "")
		if err != nil {
			a.respondError(c, err)
			return
		}
		if taken {
			a.respondError(c, &quota.ConflictError{Msg: "Custom link already in use"})
			return
		}
		if err := quota.CheckCustomLink(p, limits, usage, false); err != nil {
			a.respondError(c, err)
			return
		}
	}

	if err := quota.CheckUpload(p, limits, usage, req.Size); err != nil {
		a.respondError(c, err)
		return
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	upload := &store.Upload{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        strings.TrimSpace(req.Name),
		Size:        req.Size,
		ContentType: contentType,
		CustomLink:  req.CustomLink,
		StorageKey:  uuid.NewString(),
	}
	if err := a.store.CreateUpload(upload); err != nil {
		a.respondError(c, err)
		return
	}

	url, err := a.blobs.PresignUpload(upload.StorageKey, contentType, req.Size)
	if err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"upload_id":  upload.ID,
		"upload_url": url,
		"expires_at": now.Add(limits.Retention()),
	})
}

// completeUpload commits a reservation: the slug is re-checked here to
// close the window between reserve and commit, and a collision fails
// the whole completion. The already-uploaded blob may be orphaned in
// that case; reconciling it is out of scope.
func (a *API) completeUpload(c *gin.Context) {
	upload, err := a.store.GetUpload(c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}

	user := currentUser(c)
	userID := ""
	if user != nil {
		userID = user.ID
	}
	if upload.UserID != userID {
		notFound(c)
		return
	}

	if upload.CustomLink != "" {
		taken, err := a.store.CustomLinkTaken(upload.CustomLink, "")
		if err != nil {
			a.respondError(c, err)
			return
		}
		if taken {
			a.respondError(c, &quota.ConflictError{Msg: "Custom link already in use"})
			return
		}
	}

	now := time.Now()
	p := plan.Guest
	if user != nil {
		p = user.EffectivePlan(now)
	}

	file := &store.File{
		ID:          uuid.NewString(),
		UserID:      upload.UserID,
		Name:        upload.Name,
		Size:        upload.Size,
		ContentType: upload.ContentType,
		CreatedAt:   now,
		ExpiresAt:   now.Add(p.Limits().Retention()),
		CustomLink:  upload.CustomLink,
		StorageKey:  upload.StorageKey,
	}
	if err := a.store.CreateFile(file); err != nil {
		a.respondError(c, err)
		return
	}

	// The history snapshot is written once here and never updated;
	// it outlives the file record.
	if err := a.store.AddHistory(&store.HistoryEntry{
		ID:          uuid.NewString(),
		UserID:      upload.UserID,
		FileID:      file.ID,
		Name:        file.Name,
		Size:        file.Size,
		ContentType: file.ContentType,
		UploadedAt:  now,
	}); err != nil {
		a.respondError(c, err)
		return
	}

	if err := a.store.DeleteUpload(upload.ID); err != nil {
		a.logger.Printf("failed to drop upload reservation %s: %v", upload.ID, err)
	}

	c.JSON(http.StatusOK, file)
}
