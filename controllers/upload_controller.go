package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetFile handles GET /api/files/:fileId - returns a short-lived signed URL
// for a data request attachment the caller may view
func GetFile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	fileID, ok := paramID(c, "fileId")
	if !ok {
		return
	}

	file, url, err := dataRequestService().FileURL(c.Request.Context(), user.Caller(), fileID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	respondOK(c, http.StatusOK, gin.H{
		"file": file,
		"url":  url,
	})
}
