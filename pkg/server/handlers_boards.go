package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openboard/openboard/pkg/datastore"
	"github.com/openboard/openboard/pkg/model"
)

type boardRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

func (s *Server) handleListBoards(c *gin.Context) {
	boards, err := s.store.NonTx().ListBoardsForUser(currentUser(c).ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list boards"})
		return
	}
	c.JSON(http.StatusOK, boards)
}

func (s *Server) handleCreateBoard(c *gin.Context) {
	var req boardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	board := &model.Board{
		Title:       req.Title,
		Description: req.Description,
		Color:       req.Color,
		OwnerID:     currentUser(c).ID,
	}
	if err := board.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.store.NonTx().CreateBoard(board); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create board"})
		return
	}

	s.metrics.BoardsCreated.Add(1)
	c.JSON(http.StatusCreated, board)
}

type listDetail struct {
	model.List
	Cards []model.Card `json:"cards"`
}

type boardDetail struct {
	model.Board
	Members []model.User `json:"members"`
	Lists   []listDetail `json:"lists"`
}

// handleGetBoard returns a board with its members and its lists, each list
// carrying its cards in position order.
func (s *Server) handleGetBoard(c *gin.Context) {
	boardID, ok := idParam(c, "id")
	if !ok {
		return
	}
	board, ok := s.requireBoard(c, boardID, currentUser(c))
	if !ok {
		return
	}

	st := s.store.NonTx()
	members, err := st.ListBoardMembers(boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list members"})
		return
	}
	lists, err := st.ListListsByBoard(boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list lists"})
		return
	}

	detail := boardDetail{Board: *board, Members: members, Lists: make([]listDetail, 0, len(lists))}
	for _, l := range lists {
		cards, err := st.ListCardsByList(l.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list cards"})
			return
		}
		detail.Lists = append(detail.Lists, listDetail{List: l, Cards: cards})
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) handleUpdateBoard(c *gin.Context) {
	boardID, ok := idParam(c, "id")
	if !ok {
		return
	}
	board, ok := s.requireBoard(c, boardID, currentUser(c))
	if !ok {
		return
	}

	var req boardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	board.Title = req.Title
	board.Description = req.Description
	if req.Color != "" {
		board.Color = req.Color
	}
	if err := board.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.store.NonTx().UpdateBoard(board); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update board"})
		return
	}
	c.JSON(http.StatusOK, board)
}

// handleDeleteBoard removes a board and everything under it. Only the owner
// may delete; members can leave but not destroy.
func (s *Server) handleDeleteBoard(c *gin.Context) {
	boardID, ok := idParam(c, "id")
	if !ok {
		return
	}
	board, ok := s.requireBoard(c, boardID, currentUser(c))
	if !ok {
		return
	}
	if board.OwnerID != currentUser(c).ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the owner can delete a board"})
		return
	}
	if err := s.store.NonTx().DeleteBoard(boardID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete board"})
		return
	}
	s.metrics.BoardsDeleted.Add(1)
	c.Status(http.StatusNoContent)
}

type memberRequest struct {
	Email string `json:"email" binding:"required"`
}

func (s *Server) handleAddMember(c *gin.Context) {
	boardID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if _, ok := s.requireBoard(c, boardID, currentUser(c)); !ok {
		return
	}

	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}
	member, err := s.store.NonTx().GetUserByEmail(req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup user"})
		return
	}
	if member == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	tx, err := s.store.Tx(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "begin transaction"})
		return
	}
	if err := tx.AddBoardMember(boardID, member.ID); err != nil {
		if errors.Is(err, datastore.ErrDuplicateMember) {
			c.JSON(http.StatusConflict, gin.H{"error": "user is already a member"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "add member"})
		return
	}

	s.metrics.MembersAdded.Add(1)
	c.JSON(http.StatusCreated, gin.H{"board_id": boardID, "user_id": member.ID})
}

// handleRemoveMember drops a membership. Removing a user who is not a member
// is a no-op, mirroring the registry's tolerant teardown.
func (s *Server) handleRemoveMember(c *gin.Context) {
	boardID, ok := idParam(c, "id")
	if !ok {
		return
	}
	userID, ok := idParam(c, "userID")
	if !ok {
		return
	}
	if _, ok := s.requireBoard(c, boardID, currentUser(c)); !ok {
		return
	}
	if err := s.store.NonTx().RemoveBoardMember(boardID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "remove member"})
		return
	}
	c.Status(http.StatusNoContent)
}
