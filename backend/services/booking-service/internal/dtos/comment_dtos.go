package dtos

type CommentRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}
