package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openboard/openboard/pkg/model"
)

type cardRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	Position    int    `json:"position"`
	ListID      int64  `json:"list_id"`
}

// requireCard loads a card and checks board access through its parent list.
func (s *Server) requireCard(c *gin.Context, cardID int64, user *model.User) (*model.Card, bool) {
	card, err := s.store.NonTx().GetCard(cardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load card"})
		return nil, false
	}
	if card == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
		return nil, false
	}
	if _, ok := s.requireList(c, card.ListID, user); !ok {
		return nil, false
	}
	return card, true
}

func (s *Server) handleListCards(c *gin.Context) {
	listID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if _, ok := s.requireList(c, listID, currentUser(c)); !ok {
		return
	}
	cards, err := s.store.NonTx().ListCardsByList(listID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list cards"})
		return
	}
	c.JSON(http.StatusOK, cards)
}

func (s *Server) handleCreateCard(c *gin.Context) {
	listID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if _, ok := s.requireList(c, listID, currentUser(c)); !ok {
		return
	}

	var req cardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	card := &model.Card{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		Position:    req.Position,
		ListID:      listID,
	}
	if err := card.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.store.NonTx().CreateCard(card); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create card"})
		return
	}

	s.metrics.CardsCreated.Add(1)
	c.JSON(http.StatusCreated, card)
}

// handleUpdateCard updates a card in place. Supplying a different list_id
// moves the card, as long as the target list lives on the same board.
func (s *Server) handleUpdateCard(c *gin.Context) {
	cardID, ok := idParam(c, "id")
	if !ok {
		return
	}
	user := currentUser(c)
	card, ok := s.requireCard(c, cardID, user)
	if !ok {
		return
	}

	var req cardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	if req.ListID != 0 && req.ListID != card.ListID {
		origin, err := s.store.NonTx().GetList(card.ListID)
		if err != nil || origin == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "load list"})
			return
		}
		target, ok := s.requireList(c, req.ListID, user)
		if !ok {
			return
		}
		if target.BoardID != origin.BoardID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot move a card across boards"})
			return
		}
		card.ListID = req.ListID
	}

	card.Title = req.Title
	card.Description = req.Description
	card.Completed = req.Completed
	card.Position = req.Position
	if err := card.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.store.NonTx().UpdateCard(card); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update card"})
		return
	}
	c.JSON(http.StatusOK, card)
}

func (s *Server) handleDeleteCard(c *gin.Context) {
	cardID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if _, ok := s.requireCard(c, cardID, currentUser(c)); !ok {
		return
	}
	if err := s.store.NonTx().DeleteCard(cardID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete card"})
		return
	}
	c.Status(http.StatusNoContent)
}
