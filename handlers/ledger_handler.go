package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/anurag-05-cmd/StakeInNature/models"
	"github.com/anurag-05-cmd/StakeInNature/pkg/units"
	"github.com/anurag-05-cmd/StakeInNature/services"
)

// LedgerHandler handles direct ledger read/write HTTP requests. Mutating
// actions run under the per-account lock shared with the claim gate and the
// post-verdict write, so no ledger write for an account can interleave with
// another in-flight one.
type LedgerHandler struct {
	ledger   services.Ledger
	sessions *services.SessionService
	locks    *services.AccountLocks
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(ledger services.Ledger, sessions *services.SessionService, locks *services.AccountLocks) *LedgerHandler {
	return &LedgerHandler{
		ledger:   ledger,
		sessions: sessions,
		locks:    locks,
	}
}

// Handle handles POST /ledger, dispatching on the action field.
func (h *LedgerHandler) Handle(c *gin.Context) {
	var req models.LedgerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format: " + err.Error(),
		})
		return
	}

	if req.Action == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Action is required",
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

	ctx := c.Request.Context()
	user := common.HexToAddress(req.UserAddress)
	h.sessions.Track(user)

	switch req.Action {
	case "getStakedBalance":
		balance, err := h.ledger.GetStakedBalance(ctx, user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"stakedBalance": units.Format(balance)})

	case "getTokenBalance":
		balance, err := h.ledger.GetTokenBalance(ctx, user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"tokenBalance": units.Format(balance)})

	case "isValidated":
		validated, err := h.ledger.IsValidated(ctx, user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"isValidated": validated})

	case "getUserData":
		userData, err := h.getUserData(ctx, user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, userData)

	case "stake":
		h.stake(c, user, req.Amount)

	case "unstake":
		h.unstake(c, user, req.Amount)

	case "unstakeAll":
		h.locks.Lock(user)
		txHash, err := h.ledger.UnstakeAll(ctx)
		h.locks.Unlock(user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		h.sessions.Refresh(ctx, user)
		c.JSON(http.StatusOK, gin.H{"success": true, "txHash": txHash.Hex()})

	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Unknown action: %s", req.Action),
		})
	}
}

func (h *LedgerHandler) getUserData(ctx context.Context, user common.Address) (*models.UserData, error) {
	tokenBalance, err := h.ledger.GetTokenBalance(ctx, user)
	if err != nil {
		return nil, err
	}
	stakedBalance, err := h.ledger.GetStakedBalance(ctx, user)
	if err != nil {
		return nil, err
	}
	validated, err := h.ledger.IsValidated(ctx, user)
	if err != nil {
		return nil, err
	}

	return &models.UserData{
		TokenBalance:  units.Format(tokenBalance),
		StakedBalance: units.Format(stakedBalance),
		IsValidated:   validated,
	}, nil
}

// stake enforces the minimum-stake rule before any ledger call is issued.
func (h *LedgerHandler) stake(c *gin.Context, user common.Address, amountStr string) {
	if amountStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount is required"})
		return
	}
	amount, err := units.Parse(amountStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount: " + err.Error()})
		return
	}
	if amount.Cmp(services.MinimumStake) < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("%v: minimum stake is 900 SIN", services.ErrBelowMinimumStake),
		})
		return
	}

	ctx := c.Request.Context()
	h.locks.Lock(user)
	txHash, err := h.ledger.Stake(ctx, amount)
	h.locks.Unlock(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.sessions.Refresh(ctx, user)
	c.JSON(http.StatusOK, gin.H{"success": true, "txHash": txHash.Hex()})
}

func (h *LedgerHandler) unstake(c *gin.Context, user common.Address, amountStr string) {
	if amountStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount is required"})
		return
	}
	amount, err := units.Parse(amountStr)
	if err != nil || amount.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	ctx := c.Request.Context()
	h.locks.Lock(user)
	txHash, err := h.ledger.Unstake(ctx, amount)
	h.locks.Unlock(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.sessions.Refresh(ctx, user)
	c.JSON(http.StatusOK, gin.H{"success": true, "txHash": txHash.Hex()})
}
