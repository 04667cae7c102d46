package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eaglebank/ledger-service/internal/tools"
	"github.com/eaglebank/ledger-service/shared/middleware"
)

// ToolDispatcher is satisfied by *tools.Router.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, call tools.ToolCall) tools.Envelope
}

type ToolHandler struct {
	router ToolDispatcher
}

type ListToolsResponse struct {
	Tools []tools.Definition `json:"tools"`
}

func NewToolHandler(router ToolDispatcher) *ToolHandler {
	return &ToolHandler{router: router}
}

func (h *ToolHandler) ListTools(c *gin.Context) {
	c.JSON(http.StatusOK, ListToolsResponse{Tools: tools.Definitions()})
}

// CallTool always answers 200: success or failure is carried in the envelope.
func (h *ToolHandler) CallTool(c *gin.Context) {
	var call tools.ToolCall
	if err := c.ShouldBindJSON(&call); err != nil {
		c.JSON(http.StatusOK, tools.Envelope{Success: false, Error: "Invalid tool call"})
		return
	}
	call.CallerID = middleware.GetCallerID(c)
	c.JSON(http.StatusOK, h.router.Dispatch(c.Request.Context(), call))
}
