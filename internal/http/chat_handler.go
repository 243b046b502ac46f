// README: Chat handlers for sending and reading conversation messages.
package http

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type sendChatReq struct {
	OrderID string `json:"orderId" binding:"required"`
	UserID  string `json:"userId" binding:"required"`
	Role    string `json:"role" binding:"required"`
	Message string `json:"message" binding:"required"`
}

func (s *Server) handleSendChat(c *gin.Context) {
	var req sendChatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.chat.Send(c.Request.Context(), req.OrderID, req.UserID, req.Role, req.Message); err != nil {
		log.Printf("send chat orderId=%s: %v", req.OrderID, err)
		writeError(c, http.StatusInternalServerError, "failed to publish chat message")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"orderId": req.OrderID})
}

func (s *Server) handleChatMessages(c *gin.Context) {
	orderID := c.Query("orderId")
	if orderID == "" {
		writeError(c, http.StatusBadRequest, "missing orderId")
		return
	}
	since := int64(0)
	if v := c.Query("fromTimestamp"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(c, http.StatusBadRequest, "fromTimestamp must be epoch millis")
			return
		}
		since = n
	}
	entries, err := s.chat.Messages(c.Request.Context(), orderID, since)
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
