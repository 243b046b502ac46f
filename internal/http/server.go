// README: API gateway; registers HTTP routes and delegates to module services.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"courier/internal/http/middleware"
	"courier/internal/modules/chat"
	"courier/internal/modules/location"
	"courier/internal/modules/order"
)

type ServerDeps struct {
	Order    *order.Service
	Chat     *chat.Service
	Location *location.Service
}

type Server struct {
	order    *order.Service
	chat     *chat.Service
	location *location.Service
}

func NewServer(deps ServerDeps) *Server {
	return &Server{
		order:    deps.Order,
		chat:     deps.Chat,
		location: deps.Location,
	}
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(middleware.Logging(), middleware.Recovery())

	orders := r.Group("/order")
	{
		orders.POST("/send", s.handleSendStatus)
		orders.GET("/receive", s.handleByStatus)
		orders.GET("/orderId", s.handleByOrderID)
		orders.GET("/orderIdStatus", s.handleByOrderAndStatus)
		orders.GET("/userId", s.handleByUser)
		orders.GET("/riderId", s.handleByRider)
		orders.GET("/userList", s.handleUserList)
		orders.GET("/riderList", s.handleRiderList)
		orders.GET("/orderCount", s.handleOrderCount)
		orders.GET("/chatCount", s.handleChatCount)
		orders.GET("/all", s.handleAllOrders)
		orders.DELETE("/admin/flush", s.handleFlush)
	}

	chats := r.Group("/chat")
	{
		chats.POST("/send", s.handleSendChat)
		chats.GET("/messages", s.handleChatMessages)
	}

	locations := r.Group("/location")
	{
		locations.POST("/update", s.handleLocationUpdate)
		locations.GET("/rider/:id", s.handleLocationGet)
		locations.GET("/all", s.handleLocationAll)
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
