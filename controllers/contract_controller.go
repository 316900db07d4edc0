package controllers

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/edu-brokerage-api/config"
	"github.com/kendall-kelly/edu-brokerage-api/models"
	"github.com/kendall-kelly/edu-brokerage-api/services"
)

func contractService() *services.ContractService {
	return services.NewContractService(config.GetDB(), services.GetDocumentService())
}

// UploadContracts handles POST /api/contracts - multipart upload of contract1
// and/or contract2 with an optional order_id
func UploadContracts(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondErrorCode(c, http.StatusBadRequest, "INVALID_FORM", "Expected a multipart form with contract1 and/or contract2")
		return
	}

	var orderID *uint
	if raw := c.PostForm("order_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			respondErrorCode(c, http.StatusBadRequest, "INVALID_ID", "Invalid order_id")
			return
		}
		v := uint(id)
		orderID = &v
	}

	files := map[string]*multipart.FileHeader{}
	for _, kind := range []string{models.ContractPrimary, models.ContractSecondary} {
		if headers := form.File[kind]; len(headers) > 0 {
			files[kind] = headers[0]
		}
	}

	contracts, err := contractService().Upload(c.Request.Context(), user, orderID, files)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, contracts)
}

// GetOrderContracts handles GET /api/simple-contracts/:id - resolves the
// signed contracts of an order
func GetOrderContracts(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	lookup, err := contractService().Lookup(c.Request.Context(), user.Caller(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, lookup)
}
