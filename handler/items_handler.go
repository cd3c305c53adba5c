package handler

import (
	"lifeloop/usecase"
	"lifeloop/utils"

	"github.com/gin-gonic/gin"
)

type ItemsHandler struct {
	completion *usecase.CompletionService
}

func NewItemsHandler(completion *usecase.CompletionService) *ItemsHandler {
	return &ItemsHandler{completion: completion}
}

func currentUser(c *gin.Context) (string, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		utils.Unauthorized(c, "Missing or invalid token")
		return "", false
	}
	return userID, true
}

func (h *ItemsHandler) Complete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	item, err := h.completion.CompleteNow(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, item)
}

func (h *ItemsHandler) Uncomplete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	item, err := h.completion.UncompleteNow(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, item)
}

func (h *ItemsHandler) CompleteRoutine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	routine, err := h.completion.CompleteRoutine(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, routine)
}

func (h *ItemsHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.completion.DeleteItem(c.Request.Context(), c.Param("id"), userID); err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, gin.H{"message": "Item deleted successfully"})
}
