// README: Order handlers; publish endpoint plus the multi-dimensional query surface.
package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"courier/internal/modules/order"
)

type sendStatusReq struct {
	OrderID string `json:"orderId" binding:"required"`
	Status  string `json:"status" binding:"required"`
	UserID  string `json:"userId" binding:"required"`
	RiderID string `json:"riderId"`
	Message string `json:"message"`
}

func (s *Server) handleSendStatus(c *gin.Context) {
	var req sendStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.order.SendStatusUpdate(c.Request.Context(), req.OrderID, req.Status, req.UserID, req.RiderID, req.Message); err != nil {
		log.Printf("send status update orderId=%s: %v", req.OrderID, err)
		writeError(c, http.StatusInternalServerError, "failed to publish status update")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"orderId": req.OrderID})
}

func (s *Server) handleByStatus(c *gin.Context) {
	status := c.Query("status")
	if status == "" {
		writeError(c, http.StatusBadRequest, "missing status")
		return
	}
	list, err := s.order.ByStatus(c.Request.Context(), status)
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleByOrderID(c *gin.Context) {
	orderID := c.Query("orderId")
	if orderID == "" {
		writeError(c, http.StatusBadRequest, "missing orderId")
		return
	}
	list, err := s.order.ByOrderID(c.Request.Context(), orderID)
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleByOrderAndStatus(c *gin.Context) {
	orderID, status := c.Query("orderId"), c.Query("status")
	if orderID == "" || status == "" {
		writeError(c, http.StatusBadRequest, "missing orderId or status")
		return
	}
	p, err := s.order.ByOrderAndStatus(c.Request.Context(), orderID, status)
	if err != nil {
		writeQueryError(c, err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleByUser(c *gin.Context) {
	s.handleByActorAndStatus(c, order.RoleUser, c.Query("userId"))
}

func (s *Server) handleByRider(c *gin.Context) {
	s.handleByActorAndStatus(c, order.RoleRider, c.Query("riderId"))
}

func (s *Server) handleByActorAndStatus(c *gin.Context, role order.Role, actorID string) {
	status := c.Query("status")
	if actorID == "" || status == "" {
		writeError(c, http.StatusBadRequest, "missing id or status")
		return
	}
	list, err := s.order.ByActor(c.Request.Context(), role, actorID, status)
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleUserList(c *gin.Context) {
	s.handleActiveByActor(c, order.RoleUser, c.Query("userId"))
}

func (s *Server) handleRiderList(c *gin.Context) {
	s.handleActiveByActor(c, order.RoleRider, c.Query("riderId"))
}

func (s *Server) handleActiveByActor(c *gin.Context, role order.Role, actorID string) {
	if actorID == "" {
		writeError(c, http.StatusBadRequest, "missing id")
		return
	}
	list, err := s.order.ActiveByActor(c.Request.Context(), role, actorID)
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleOrderCount(c *gin.Context) {
	role, actorID, ok := actorParams(c)
	if !ok {
		return
	}
	n, err := s.order.CountOrders(c.Request.Context(), role, actorID)
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (s *Server) handleChatCount(c *gin.Context) {
	role, actorID, ok := actorParams(c)
	if !ok {
		return
	}
	n, err := s.order.CountActiveChats(c.Request.Context(), role, actorID)
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (s *Server) handleAllOrders(c *gin.Context) {
	list, err := s.order.All(c.Request.Context())
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleFlush(c *gin.Context) {
	if err := s.order.Wipe(c.Request.Context()); err != nil {
		writeQueryError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// actorParams resolves the id/role query pair; the role string is validated
// here, at the boundary, so services only ever see the closed enumeration.
func actorParams(c *gin.Context) (order.Role, string, bool) {
	actorID := c.Query("id")
	role, err := order.ParseRole(c.Query("role"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "role must be USER or RIDER")
		return "", "", false
	}
	if actorID == "" {
		writeError(c, http.StatusBadRequest, "missing id")
		return "", "", false
	}
	return role, actorID, true
}
