package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/anurag-05-cmd/StakeInNature/services"
)

// EvidenceHandler handles evidence submission HTTP requests.
type EvidenceHandler struct {
	validationService *services.ValidationService
}

// NewEvidenceHandler creates a new evidence handler.
func NewEvidenceHandler(validationService *services.ValidationService) *EvidenceHandler {
	return &EvidenceHandler{
		validationService: validationService,
	}
}

// Submit handles POST /evidence. The request is a multipart form with an
// "image" file and a "userAddress" field. A slash triggered here is
// irreversible; the response reflects the verdict even if the ledger write
// behind it has not confirmed.
func (h *EvidenceHandler) Submit(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No image provided",
		})
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read image: " + err.Error(),
		})
		return
	}

	userAddress := c.PostForm("userAddress")
	if userAddress == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "userAddress is required",
		})
		return
	}
	if !common.IsHexAddress(userAddress) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid userAddress",
		})
		return
	}

	result, err := h.validationService.SubmitEvidence(
		c.Request.Context(),
		common.HexToAddress(userAddress),
		image,
		header.Header.Get("Content-Type"),
	)
	if err != nil {
		status := http.StatusInternalServerError
		if isBusinessRejection(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      result.Success,
		"confidence":   result.Confidence,
		"isGoodImage":  result.IsGoodImage,
		"reason":       result.Reason,
		"submissionId": result.SubmissionID,
	})
}

// isBusinessRejection reports whether an error is a business-rule rejection
// rather than a fault, so the handler can return 400 with specific guidance.
func isBusinessRejection(err error) bool {
	return errors.Is(err, services.ErrAlreadyValidated) ||
		errors.Is(err, services.ErrSubmissionInFlight) ||
		errors.Is(err, services.ErrNoActiveStake) ||
		errors.Is(err, services.ErrAccountSlashed) ||
		errors.Is(err, services.ErrBelowMinimumStake) ||
		errors.Is(err, services.ErrAlreadyClaimed)
}
