package controller

import (
	"net/http"

	"avatar-backend/models"
	"avatar-backend/services"

	"github.com/gin-gonic/gin"
)

// ChatController handles the HTTP requests for querying the avatar. It depends on
// the RAGService to perform the actual pipeline work.
type ChatController struct {
	ragService services.RAGService
}

// NewChatController is a constructor function that creates a new ChatController.
func NewChatController(ragService services.RAGService) *ChatController {
	return &ChatController{ragService: ragService}
}

// Query is the Gin handler for POST /api/v1/query. It parses the request, calls
// the service layer, and returns the generated answer.
func (c *ChatController) Query(ctx *gin.Context) {
	var req models.QueryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	answer, err := c.ragService.Respond(ctx.Request.Context(), req.Message, req.History)
	if err != nil {
		// The underlying provider error is logged by the service layer.
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate a response"})
		return
	}
	ctx.JSON(http.StatusOK, models.QueryResponse{Answer: answer})
}
