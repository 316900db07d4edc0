package controllers

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/edu-brokerage-api/config"
	"github.com/kendall-kelly/edu-brokerage-api/services"
	"github.com/kendall-kelly/edu-brokerage-api/utils"
)

// OpenDataRequestRequest represents the body of POST /api/orders/:id/data-requests
type OpenDataRequestRequest struct {
	Message string `json:"message" binding:"required"`
}

// ReplyDataRequestRequest represents the body of POST /api/orders/:id/data-requests/reply
type ReplyDataRequestRequest struct {
	RequestID uint   `json:"request_id" binding:"required"`
	Reply     string `json:"reply" binding:"required"`
}

// RespondDataRequestJSON is the JSON form of a client response without files
type RespondDataRequestJSON struct {
	Note *string `json:"note"`
}

// AdminUpdateDataRequestRequest represents the body of PATCH /api/admin/data-requests/:id
type AdminUpdateDataRequestRequest struct {
	Message *string `json:"message"`
	Close   bool    `json:"close"`
}

// maxResponseMemory bounds the in-memory part of a multipart response
const maxResponseMemory = 32 << 20

func dataRequestService() *services.DataRequestService {
	return services.NewDataRequestService(config.GetDB(), services.GetNotifier(), services.GetDocumentService())
}

// OpenDataRequest handles POST /api/orders/:id/data-requests
func OpenDataRequest(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req OpenDataRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	created, err := dataRequestService().Open(c.Request.Context(), user.Caller(), orderID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, created)
}

// ListDataRequests handles GET /api/orders/:id/data-requests
func ListDataRequests(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	requests, err := dataRequestService().List(c.Request.Context(), user.Caller(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, requests)
}

// RespondToDataRequest handles POST /api/orders/:id/data-requests/:requestId/respond.
// Accepts multipart (note field plus files) or a JSON note.
func RespondToDataRequest(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	requestID, ok := paramID(c, "requestId")
	if !ok {
		return
	}

	var in services.RespondInput
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.Request.ParseMultipartForm(maxResponseMemory); err != nil {
			respondErrorCode(c, http.StatusBadRequest, "INVALID_FORM", "Could not read the uploaded form")
			return
		}
		form := c.Request.MultipartForm
		if notes := form.Value["note"]; len(notes) > 0 {
			in.Note = &notes[0]
		}
		in.Files = collectFiles(form, "files", "file")
		if len(in.Files) > utils.MaxFilesPerUpload {
			respondErrorCode(c, http.StatusBadRequest, "TOO_MANY_FILES", "Too many files attached")
			return
		}
	} else {
		var body RespondDataRequestJSON
		if err := c.ShouldBindJSON(&body); err != nil {
			respondValidation(c, err)
			return
		}
		in.Note = body.Note
	}

	updated, err := dataRequestService().Respond(c.Request.Context(), user.Caller(), orderID, requestID, in)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, updated)
}

func collectFiles(form *multipart.Form, fields ...string) []*multipart.FileHeader {
	var files []*multipart.FileHeader
	for _, field := range fields {
		files = append(files, form.File[field]...)
	}
	return files
}

// ReplyToDataRequest handles POST /api/orders/:id/data-requests/reply
func ReplyToDataRequest(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req ReplyDataRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	updated, err := dataRequestService().Reply(c.Request.Context(), user.Caller(), orderID, services.ReplyInput{
		RequestID: req.RequestID,
		Reply:     req.Reply,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, updated)
}

// CloseDataRequest handles POST /api/orders/:id/data-requests/:requestId/close
func CloseDataRequest(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	requestID, ok := paramID(c, "requestId")
	if !ok {
		return
	}

	closed, err := dataRequestService().Close(c.Request.Context(), user.Caller(), orderID, requestID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, closed)
}

// AdminListDataRequests handles GET /api/admin/data-requests
func AdminListDataRequests(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	requests, err := dataRequestService().AdminList(c.Request.Context(), user.Caller(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, requests)
}

// AdminUpdateDataRequest handles PATCH /api/admin/data-requests/:id
func AdminUpdateDataRequest(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req AdminUpdateDataRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	updated, err := dataRequestService().AdminEdit(c.Request.Context(), user.Caller(), id, services.AdminEditInput{
		Message: req.Message,
		Close:   req.Close,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, updated)
}

// AdminDeleteDataRequest handles DELETE /api/admin/data-requests/:id
func AdminDeleteDataRequest(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := dataRequestService().AdminDelete(c.Request.Context(), user.Caller(), id); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}
