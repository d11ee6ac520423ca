package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phuslu/log"

	"github.com/mnfctr/datasheet-rag/internal/core"
	"github.com/mnfctr/datasheet-rag/internal/core/model"
	"github.com/mnfctr/datasheet-rag/internal/core/quality"
)

type Server struct {
	Pipeline *core.Pipeline
}

func NewServer(pipeline *core.Pipeline) *Server {
	return &Server{Pipeline: pipeline}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/health", s.Health)
	r.POST("/api/query", s.Query)
	r.POST("/api/query/stream", s.QueryStream)
	r.POST("/api/query/multi", s.MultiQuery)
	r.POST("/api/selftest/run", s.RunSelfTest)
	r.POST("/api/selftest/validate", s.ValidateAnswer)
	r.GET("/api/selftest/suites", s.ListSuites)

	return r
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) Query(c *gin.Context) {
	var req model.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if err := req.Normalize(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := s.Pipeline.Query(c.Request.Context(), &req)
	if err != nil {
		log.Error().Err(err).Msg("query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process query"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) QueryStream(c *gin.Context) {
	var req model.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if err := req.Normalize(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("X-Content-Type-Options", "nosniff")

	err := s.Pipeline.QueryStream(c.Request.Context(), &req, func(chunk string) error {
		if _, werr := c.Writer.WriteString(chunk); werr != nil {
			return werr
		}
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("streaming query failed")
	}
}

func (s *Server) MultiQuery(c *gin.Context) {
	var req model.MultiQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if err := req.Normalize(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !req.Combine() {
		c.JSON(http.StatusOK, s.Pipeline.SearchSources(c.Request.Context(), &req))
		return
	}

	resp, err := s.Pipeline.MultiQuery(c.Request.Context(), &req)
	if err != nil {
		log.Error().Err(err).Msg("multi-source query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process query"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

type selfTestRequest struct {
	TestSuite   string               `json:"test_suite"`
	CustomCases []model.SelfTestCase `json:"custom_cases"`
}

func (s *Server) RunSelfTest(c *gin.Context) {
	var req selfTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	summary, err := s.Pipeline.RunSelfTest(c.Request.Context(), req.TestSuite, req.CustomCases)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) ListSuites(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"test_suites": quality.SuiteCatalog()})
}

type validateRequest struct {
	Question   string               `json:"question" binding:"required"`
	Answer     string               `json:"answer"`
	Sources    []model.EvidenceItem `json:"sources"`
	Confidence float64              `json:"confidence"`
}

func (s *Server) ValidateAnswer(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	result := s.Pipeline.ValidateAnswer(req.Question, req.Answer, req.Sources, req.Confidence)
	c.JSON(http.StatusOK, result)
}
