// README: Rider location handlers.
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"courier/internal/modules/location"
)

type locationUpdateReq struct {
	RiderID   string  `json:"riderId" binding:"required"`
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

func (s *Server) handleLocationUpdate(c *gin.Context) {
	var req locationUpdateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid location data")
		return
	}
	err := s.location.Update(c.Request.Context(), location.Update{
		RiderID:  req.RiderID,
		Position: location.Position{Latitude: req.Latitude, Longitude: req.Longitude},
	})
	if errors.Is(err, location.ErrBadRequest) {
		writeError(c, http.StatusBadRequest, "invalid location data")
		return
	}
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"riderId": req.RiderID})
}

func (s *Server) handleLocationGet(c *gin.Context) {
	riderID := c.Param("id")
	pos, err := s.location.Get(c.Request.Context(), riderID)
	if errors.Is(err, location.ErrNotFound) {
		writeError(c, http.StatusNotFound, "location not found")
		return
	}
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, pos)
}

func (s *Server) handleLocationAll(c *gin.Context) {
	all, err := s.location.All(c.Request.Context())
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, all)
}
