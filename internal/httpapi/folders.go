package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/subelo/subelo/internal/quota"
	"github.com/subelo/subelo/internal/store"
)

type createFolderRequest struct {
	Name string `json:"name"`
}

func (a *API) createFolder(c *gin.Context) {
	user := currentUser(c)

	var req createFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	p := user.EffectivePlan(time.Now())
	usage, err := a.store.Usage(user.ID)
	if err != nil {
		a.respondError(c, err)
		return
	}

	if err := quota.CheckCreateFolder(p, p.Limits(), usage, req.Name); err != nil {
		a.respondError(c, err)
		return
	}

	name := strings.TrimSpace(req.Name)
	taken, err := a.store.FolderNameTaken(user.ID, name)
	if err != nil {
		a.respondError(c, err)
		return
	}
	if taken {
		a.respondError(c, &quota.ConflictError{Msg: "A folder with that name already exists"})
		return
	}

	folder := &store.Folder{ID: uuid.NewString(), UserID: user.ID, Name: name}
	if err := a.store.CreateFolder(folder); err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, folder)
}

func (a *API) listFolders(c *gin.Context) {
	folders, err := a.store.ListFolders(currentUser(c).ID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"folders": folders})
}

func (a *API) deleteFolder(c *gin.Context) {
	user := currentUser(c)

	folder, err := a.store.GetFolder(c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	if folder.UserID != user.ID {
		notFound(c)
		return
	}

	if err := a.store.DeleteFolder(folder.ID); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Folder deleted"})
}
