package ui

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"flowcast/app"
	"flowcast/domain/core"
	"flowcast/internal/errors"
)

// Server is the JSON API variant of the flow surface, for programmatic
// clients. It exposes the same operations as the server-rendered app and the
// same derived values, nothing deeper.
type Server struct {
	router *gin.Engine
	flows  *app.FlowService
}

// NewServer creates a new API server instance
func NewServer(flows *app.FlowService) *Server {
	s := &Server{
		router: gin.Default(),
		flows:  flows,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.POST("/flows", s.createFlow)
		api.GET("/flows/:id", s.getFlowState)
		api.POST("/flows/:id/next", s.flowAction(func(c *gin.Context, h *app.FlowHandle) {
			s.flows.Advance(c.Request.Context(), h)
		}))
		api.POST("/flows/:id/previous", s.flowAction(func(c *gin.Context, h *app.FlowHandle) {
			s.flows.StepBack(c.Request.Context(), h)
		}))
		api.POST("/flows/:id/select", s.selectStep)
		api.POST("/flows/:id/submit", s.submitForecast)
		api.POST("/flows/:id/review-skipped", s.flowAction(func(c *gin.Context, h *app.FlowHandle) {
			s.flows.ReviewSkipped(c.Request.Context(), h)
		}))
		api.DELETE("/flows/:id", s.endFlow)
	}
}

// Start runs the API server
func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

type createFlowRequest struct {
	FlowType string `json:"flow_type"`
}

func (s *Server) createFlow(c *gin.Context) {
	var req createFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	handle, err := s.flows.StartFlow(c.Request.Context(), core.ParseFlowType(req.FlowType))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start flow"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": handle.ID, "posts": handle.Session.Len()})
}

// getFlowState returns the session's derived values plus the current post
// detail. A failed detail fetch degrades to a null post with fetch_failed set
// so the client can retry.
func (s *Server) getFlowState(c *gin.Context) {
	handle, ok := s.lookup(c)
	if !ok {
		return
	}
	session := handle.Session

	state := gin.H{
		"id":               handle.ID,
		"flow_type":        session.FlowType(),
		"finished":         session.Finished(),
		"current_post_id":  session.CurrentPostID(),
		"header_label":     session.HeaderLabel(),
		"posts_left":       session.PostsLeft(),
		"steps":            session.Steps(),
		"banner":           session.Banner(),
		"menu_open":        session.IsMenuOpen(),
		"previous_enabled": session.PreviousEnabled(),
		"next_enabled":     session.NextEnabled(),
	}

	if session.Finished() {
		state["final"] = session.Final()
		c.JSON(http.StatusOK, state)
		return
	}

	detail, err := s.flows.CurrentPostDetail(c.Request.Context(), handle)
	if err != nil {
		state["post"] = nil
		state["fetch_failed"] = true
		state["error_code"] = errors.GetCode(err)
		c.JSON(http.StatusOK, state)
		return
	}
	state["post"] = detail
	c.JSON(http.StatusOK, state)
}

func (s *Server) selectStep(c *gin.Context) {
	handle, ok := s.lookup(c)
	if !ok {
		return
	}
	postID, err := strconv.ParseInt(c.Query("post_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post_id"})
		return
	}
	s.flows.JumpTo(c.Request.Context(), handle, postID)
	c.JSON(http.StatusOK, gin.H{"current_post_id": handle.Session.CurrentPostID()})
}

func (s *Server) submitForecast(c *gin.Context) {
	handle, ok := s.lookup(c)
	if !ok {
		return
	}
	postID, err := strconv.ParseInt(c.Query("post_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post_id"})
		return
	}

	fresh, err := s.flows.SubmitForecast(c.Request.Context(), handle, postID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to refresh post", "code": errors.GetCode(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": fresh, "posts_left": handle.Session.PostsLeft()})
}

func (s *Server) endFlow(c *gin.Context) {
	handle, ok := s.lookup(c)
	if !ok {
		return
	}
	s.flows.EndFlow(c.Request.Context(), handle.ID)
	c.Status(http.StatusNoContent)
}

func (s *Server) flowAction(fn func(*gin.Context, *app.FlowHandle)) gin.HandlerFunc {
	return func(c *gin.Context) {
		handle, ok := s.lookup(c)
		if !ok {
			return
		}
		fn(c, handle)
		c.JSON(http.StatusOK, gin.H{
			"current_post_id": handle.Session.CurrentPostID(),
			"finished":        handle.Session.Finished(),
		})
	}
}

func (s *Server) lookup(c *gin.Context) (*app.FlowHandle, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid flow id"})
		return nil, false
	}
	handle, ok := s.flows.GetFlow(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "flow not found"})
		return nil, false
	}
	return handle, true
}
