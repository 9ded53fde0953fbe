// Package httpapi is the HTTP surface: the session-backed web API, the
// x-api-key programmatic API, the admin endpoints and the public share
// links. Handlers fetch plan limits and a fresh usage recount, call the
// quota gates inline, and map the gate's error taxonomy onto statuses.
package httpapi

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/subelo/subelo/internal/blob"
	"github.com/subelo/subelo/internal/store"
)

type API struct {
	store  *store.Store
	blobs  blob.Store
	logger *log.Logger
}

func NewAPI(st *store.Store, blobs blob.Store) *API {
	return &API{
		store:  st,
		blobs:  blobs,
		logger: log.New(os.Stdout, "[API] ", log.LstdFlags),
	}
}

func (a *API) RegisterRoutes(router *gin.Engine) {
	// Public share links.
	router.GET("/d/:ref", a.shareInfo)
	router.POST("/d/:ref", a.shareDownload)

	// Web API. Uploads admit guests; everything else needs a session.
	web := router.Group("/api")
	web.POST("/uploads", a.optionalSession(), a.initUpload)
	web.POST("/uploads/:id/complete", a.optionalSession(), a.completeUpload)

	owner := router.Group("/api")
	owner.Use(a.requireSession())
	owner.GET("/files", a.listFiles)
	owner.PATCH("/files/:id", a.updateFile)
	owner.DELETE("/files/:id", a.deleteFile)
	owner.POST("/folders", a.createFolder)
	owner.GET("/folders", a.listFolders)
	owner.DELETE("/folders/:id", a.deleteFolder)
	owner.GET("/history", a.listHistory)
	owner.GET("/account/usage", a.accountUsage)

	admin := router.Group("/api/admin")
	admin.Use(a.requireSession(), a.requireAdmin())
	admin.GET("/files", a.adminListFiles)
	admin.PUT("/files/:id", a.adminUpdateFile)
	admin.POST("/files/:id/block", a.adminBlockFile)
	admin.POST("/files/:id/unblock", a.adminUnblockFile)
	admin.DELETE("/files/:id", a.adminDeleteFile)

	// Programmatic API, x-api-key authenticated and rate limited.
	v1 := router.Group("/api/v1")
	v1.Use(a.apiKeyAuth())
	v1.POST("/uploads", a.apiInitUpload)
	v1.POST("/uploads/:id/complete", a.completeUpload)
	v1.GET("/files", a.listFiles)
	v1.DELETE("/files/:id", a.deleteFile)
}
