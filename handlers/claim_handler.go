package handlers

import (
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/anurag-05-cmd/StakeInNature/models"
	"github.com/anurag-05-cmd/StakeInNature/services"
)

// ClaimHandler handles airdrop claim HTTP requests.
type ClaimHandler struct {
	claimService *services.ClaimService
}

// NewClaimHandler creates a new claim handler.
func NewClaimHandler(claimService *services.ClaimService) *ClaimHandler {
	return &ClaimHandler{
		claimService: claimService,
	}
}

// Claim handles POST /claim.
func (h *ClaimHandler) Claim(c *gin.Context) {
	var req models.ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format: " + err.Error(),
		})
		return
	}

	if req.UserAddress == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "userAddress is required",
		})
		return
	}
	if !common.IsHexAddress(req.UserAddress) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid userAddress",
		})
		return
	}

	result, err := h.claimService.Claim(c.Request.Context(), common.HexToAddress(req.UserAddress))
	if err != nil {
		if errors.Is(err, services.ErrAlreadyClaimed) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":          "You have already claimed SIN tokens",
				"alreadyClaimed": true,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Successfully claimed 5000 SIN tokens! This airdrop is one-time and cannot be repeated.",
		"txHash":  result.TxHash,
		"amount":  result.Amount,
	})
}
