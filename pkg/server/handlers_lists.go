package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openboard/openboard/pkg/model"
)

type listRequest struct {
	Title    string `json:"title" binding:"required"`
	Position int    `json:"position"`
}

// requireList loads a list and checks board access through its parent board.
func (s *Server) requireList(c *gin.Context, listID int64, user *model.User) (*model.List, bool) {
	list, err := s.store.NonTx().GetList(listID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load list"})
		return nil, false
	}
	if list == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "list not found"})
		return nil, false
	}
	if _, ok := s.requireBoard(c, list.BoardID, user); !ok {
		return nil, false
	}
	return list, true
}

func (s *Server) handleListLists(c *gin.Context) {
	boardID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if _, ok := s.requireBoard(c, boardID, currentUser(c)); !ok {
		return
	}
	lists, err := s.store.NonTx().ListListsByBoard(boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list lists"})
		return
	}
	c.JSON(http.StatusOK, lists)
}

func (s *Server) handleCreateList(c *gin.Context) {
	boardID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if _, ok := s.requireBoard(c, boardID, currentUser(c)); !ok {
		return
	}

	var req listRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	list := &model.List{Title: req.Title, Position: req.Position, BoardID: boardID}
	if err := list.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.store.NonTx().CreateList(list); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create list"})
		return
	}

	s.metrics.ListsCreated.Add(1)
	c.JSON(http.StatusCreated, list)
}

func (s *Server) handleUpdateList(c *gin.Context) {
	listID, ok := idParam(c, "id")
	if !ok {
		return
	}
	list, ok := s.requireList(c, listID, currentUser(c))
	if !ok {
		return
	}

	var req listRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	list.Title = req.Title
	list.Position = req.Position
	if err := list.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.store.NonTx().UpdateList(list); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update list"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleDeleteList(c *gin.Context) {
	listID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if _, ok := s.requireList(c, listID, currentUser(c)); !ok {
		return
	}
	if err := s.store.NonTx().DeleteList(listID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete list"})
		return
	}
	c.Status(http.StatusNoContent)
}
