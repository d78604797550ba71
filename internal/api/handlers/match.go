package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playgrid/backend/internal/game"
	"github.com/playgrid/backend/internal/ledger"
	"github.com/playgrid/backend/internal/models"
)

// CreateOrJoinMatch pairs the caller into a match at the requested
// stake, or leaves them in a new waiting match.
func CreateOrJoinMatch() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Stake int64 `json:"stake" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "stake required"})
			return
		}

		result, err := game.Manager.CreateOrJoinMatch(c.Request.Context(), currentUserID(c), req.Stake)
		if err != nil {
			respondMatchError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// JoinMatch joins one specific waiting match.
func JoinMatch() gin.HandlerFunc {
	return func(c *gin.Context) {
		matchID, ok := matchIDParam(c)
		if !ok {
			return
		}
		result, err := game.Manager.JoinMatch(c.Request.Context(), currentUserID(c), matchID)
		if err != nil {
			respondMatchError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// PlayMove places a mark.
func PlayMove() gin.HandlerFunc {
	return func(c *gin.Context) {
		matchID, ok := matchIDParam(c)
		if !ok {
			return
		}
		var req struct {
			Position *int `json:"position" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Position == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "position required"})
			return
		}

		snap, err := game.Manager.PlayMove(c.Request.Context(), currentUserID(c), matchID, *req.Position)
		if err != nil {
			respondMatchError(c, err)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// CancelMatch withdraws an unjoined match, refunding stake + fee.
func CancelMatch() gin.HandlerFunc {
	return func(c *gin.Context) {
		matchID, ok := matchIDParam(c)
		if !ok {
			return
		}
		if err := game.Manager.CancelMatch(c.Request.Context(), currentUserID(c), matchID); err != nil {
			respondMatchError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"match_id": matchID})
	}
}

// GetMatch returns the public match snapshot.
func GetMatch() gin.HandlerFunc {
	return func(c *gin.Context) {
		matchID, ok := matchIDParam(c)
		if !ok {
			return
		}
		snap, err := game.Manager.GetMatch(c.Request.Context(), matchID)
		if err != nil {
			respondMatchError(c, err)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// RequestBotOpponent attaches the bot to a waiting match immediately,
// bypassing the wait-window fallback.
func RequestBotOpponent() gin.HandlerFunc {
	return func(c *gin.Context) {
		matchID, ok := matchIDParam(c)
		if !ok {
			return
		}
		result, err := game.Manager.RequestBotOpponent(c.Request.Context(), matchID)
		if err != nil {
			respondMatchError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// MyBalance returns the caller's balance.
func MyBalance(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if err := db.Get(&user, `SELECT * FROM users WHERE id=$1`, currentUserID(c)); err != nil {
			log.Printf("[API] Failed to load user %d: %v", currentUserID(c), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"balance": user.Balance, "status": user.Status})
	}
}

// MyMatches returns the caller's matches, newest first.
func MyMatches() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		matches, err := game.Manager.ListMatchesForUser(c.Request.Context(), currentUserID(c), limit)
		if err != nil {
			log.Printf("[API] Failed to list matches for user %d: %v", currentUserID(c), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"matches": matches})
	}
}

func matchIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match id"})
		return 0, false
	}
	return id, true
}

// respondMatchError maps the game error taxonomy onto HTTP statuses.
func respondMatchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, game.ErrInvalidStake), errors.Is(err, game.ErrInvalidPosition):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrMatchNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrNotCreator), errors.Is(err, game.ErrNotParticipant), errors.Is(err, game.ErrAccountNotActive):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrMatchNotJoinable),
		errors.Is(err, game.ErrMatchNotPlaying),
		errors.Is(err, game.ErrNotYourTurn),
		errors.Is(err, game.ErrPositionTaken),
		errors.Is(err, game.ErrMatchNotCancellable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrDuplicateReference):
		// the manager already retried once; transient from here
		c.JSON(http.StatusConflict, gin.H{"error": "concurrent update, try again"})
	default:
		log.Printf("[API] Unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
