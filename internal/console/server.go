package console

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kirana/internal/api"
	"kirana/internal/dashboard"
	"kirana/internal/models"
	"kirana/internal/notify"
	"kirana/internal/session"
	"kirana/internal/workbench"
)

// Server is the admin console's HTTP surface: the JSON API the
// single-page frontend talks to, plus the websocket channel that
// pushes new-order notifications to the header UI.
type Server struct {
	router    *gin.Engine
	workbench *workbench.Workbench
	poller    *notify.Poller
	dash      *dashboard.Service
	session   *session.Session
	hub       *Hub
}

// NewServer creates a console server wired to the given collaborators.
// The poller's notifications are forwarded to every connected
// websocket client.
func NewServer(wb *workbench.Workbench, poller *notify.Poller, dash *dashboard.Service, sess *session.Session) *Server {
	s := &Server{
		router:    gin.Default(),
		workbench: wb,
		poller:    poller,
		dash:      dash,
		session:   sess,
		hub:       NewHub(),
	}

	poller.Subscribe(s.hub.Broadcast)
	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ws", s.handleWebSocket)

	api := s.router.Group("/api")
	{
		api.GET("/orders", s.handleListOrders)
		api.GET("/orders/:number", s.handleGetOrder)
		api.PUT("/orders/:number/status", s.handleUpdateStatus)
		api.PUT("/orders/:number/cancel", s.handleCancelOrder)
		api.PUT("/orders/:number/assign", s.handleAssignPersonnel)

		api.GET("/notifications", s.handleListNotifications)
		api.POST("/notifications/read-all", s.handleMarkAllRead)
		api.POST("/notifications/clear", s.handleClearNotifications)

		api.GET("/dashboard", s.handleDashboard)
	}
}

// Router returns the Gin router.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Kirana admin console is running"})
}

// handleListOrders applies the query's filter set to the workbench and
// returns the resulting page.
func (s *Server) handleListOrders(c *gin.Context) {
	f, err := filtersFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orders, err := s.workbench.Apply(c.Request.Context(), f)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders})
}

func (s *Server) handleGetOrder(c *gin.Context) {
	order, err := s.workbench.Detail(c.Request.Context(), c.Param("number"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (s *Server) handleUpdateStatus(c *gin.Context) {
	var body struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	order, err := s.workbench.Detail(ctx, c.Param("number"))
	if err != nil {
		s.renderError(c, err)
		return
	}

	if err := s.workbench.Transition(ctx, *order, body.Status); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "status updated"})
}

func (s *Server) handleCancelOrder(c *gin.Context) {
	ctx := c.Request.Context()
	order, err := s.workbench.Detail(ctx, c.Param("number"))
	if err != nil {
		s.renderError(c, err)
		return
	}

	if err := s.workbench.Cancel(ctx, *order); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order cancelled"})
}

func (s *Server) handleAssignPersonnel(c *gin.Context) {
	var p models.Personnel
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.workbench.Assign(c.Request.Context(), c.Param("number"), p); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "personnel assigned"})
}

func (s *Server) handleListNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data":   s.poller.Notifications(),
		"unread": s.poller.UnreadCount(),
	})
}

func (s *Server) handleMarkAllRead(c *gin.Context) {
	s.poller.MarkAllRead()
	c.JSON(http.StatusOK, gin.H{"message": "all notifications marked read"})
}

func (s *Server) handleClearNotifications(c *gin.Context) {
	s.poller.Clear()
	c.JSON(http.StatusOK, gin.H{"message": "notifications cleared"})
}

func (s *Server) handleDashboard(c *gin.Context) {
	summary, err := s.dash.Summary(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summary})
}

// renderError maps backend failures onto console responses. A 401 from
// the backend tears the session down; re-login is the frontend's
// problem.
func (s *Server) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		if s.session != nil {
			s.session.Invalidate()
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session invalidated"})
	case errors.Is(err, api.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	case errors.Is(err, workbench.ErrIllegalTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}

// filtersFromQuery builds the filter set from list query parameters.
// Absent or empty parameters stay unset and are stripped again when
// the backend request is built.
func filtersFromQuery(c *gin.Context) (api.Filters, error) {
	var f api.Filters
	f.Status = models.OrderStatus(c.Query("status"))
	f.OrderType = models.OrderType(c.Query("orderType"))
	f.Search = c.Query("q")

	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errors.New("invalid 'from' timestamp")
		}
		f.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errors.New("invalid 'to' timestamp")
		}
		f.To = t
	}

	var pageQ struct {
		Page  int `form:"page"`
		Limit int `form:"limit"`
	}
	if err := c.ShouldBindQuery(&pageQ); err != nil {
		return f, errors.New("invalid page or limit")
	}
	f.Page = pageQ.Page
	f.Limit = pageQ.Limit
	return f, nil
}
