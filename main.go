package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/subelo/subelo/internal/blob"
	"github.com/subelo/subelo/internal/httpapi"
	"github.com/subelo/subelo/internal/store"
)

func main() {
	config := LoadConfig()

	st, err := store.Open(config.Storage.Database)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer st.Close()

	blobs, err := blob.NewS3Store(blob.Config{
		Endpoint:  config.S3.Endpoint,
		Region:    config.S3.Region,
		Bucket:    config.S3.Bucket,
		AccessKey: config.S3.AccessKey,
		SecretKey: config.S3.SecretKey,
	})
	if err != nil {
		log.Fatal("Failed to create blob store:", err)
	}

	api := httpapi.NewAPI(st, blobs)

	router := gin.Default()
	api.RegisterRoutes(router)

	log.Printf("Starting server on port %s", config.Server.Port)
	if err := router.Run(":" + config.Server.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
