package controllers

import (
	"net/http"

	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/dtos"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/routes"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/services"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

type CommentController struct {
	commentService services.CommentService
}

func NewCommentController(commentService services.CommentService) *CommentController {
	return &CommentController{commentService: commentService}
}

// ListComments => GET /api/users/{id}/rooms/{roomId}/comments
func (c *CommentController) ListComments(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(w, r, routes.VarRoomID)
	if !ok {
		return
	}

	comments, err := c.commentService.ListComments(r.Context(), actor.OwnerID, roomID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	utils.RespondWithJSON(w, http.StatusOK, comments)
}

// CreateComment => POST /api/users/{id}/rooms/{roomId}/comments
func (c *CommentController) CreateComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(w, r, routes.VarRoomID)
	if !ok {
		return
	}

	var req dtos.CommentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	comment, err := c.commentService.CreateComment(r.Context(), actor.User, actor.OwnerID, roomID, req.Body)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, comment)
}

// UpdateComment => PUT /api/users/{id}/rooms/{roomId}/comments/{commentId}
func (c *CommentController) UpdateComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(w, r, routes.VarRoomID)
	if !ok {
		return
	}
	commentID, ok := pathUUID(w, r, routes.VarCommentID)
	if !ok {
		return
	}

	var req dtos.CommentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	comment, err := c.commentService.UpdateComment(r.Context(), actor.User, actor.OwnerID, roomID, commentID, req.Body)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, comment)
}

// DeleteComment => DELETE /api/users/{id}/rooms/{roomId}/comments/{commentId}
func (c *CommentController) DeleteComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(w, r, routes.VarRoomID)
	if !ok {
		return
	}
	commentID, ok := pathUUID(w, r, routes.VarCommentID)
	if !ok {
		return
	}

	if err := c.commentService.DeleteComment(r.Context(), actor.User, actor.OwnerID, roomID, commentID); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
