// Package api handles HTTP and WebSocket API endpoints
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/thereceipt/kantin-receipt/internal/command"
	"github.com/thereceipt/kantin-receipt/internal/config"
	"github.com/thereceipt/kantin-receipt/internal/preview"
	"github.com/thereceipt/kantin-receipt/internal/printer"
	"github.com/thereceipt/kantin-receipt/internal/registry"
	"github.com/thereceipt/kantin-receipt/internal/renderer"
	"github.com/thereceipt/kantin-receipt/internal/service"
	"github.com/thereceipt/kantin-receipt/internal/store"
	"github.com/thereceipt/kantin-receipt/pkg/receiptformat"
)

// Version is reported by /health and the mDNS TXT record
const Version = "1.0.0"

// Server is the API server
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	manager    *printer.Manager
	queue      *printer.PrintQueue
	service    *service.Service
	executor   *command.Executor
	hub        *Hub
	// inlineOnly is set when auth is off; clients must then send documents inline
	inlineOnly bool
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, manager *printer.Manager, queue *printer.PrintQueue, svc *service.Service, executor *command.Executor) *Server {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())
	router.Use(corsMiddleware(cfg.CORS))

	server := &Server{
		router:     router,
		manager:    manager,
		queue:      queue,
		service:    svc,
		executor:   executor,
		hub:        newHub(svc, cfg.Auth.Secret == ""),
		inlineOnly: cfg.Auth.Secret == "",
	}

	server.setupRoutes(cfg)

	return server
}

func (s *Server) setupRoutes(cfg *config.Config) {
	// Health check stays open for load balancers and the CLI
	s.router.GET("/health", s.handleHealth)

	limiter := newRateLimiter(cfg.RateLimit).middleware()

	api := s.router.Group("/")
	api.Use(authMiddleware(cfg.Auth.Secret))
	{
		api.GET("/printers", s.handleGetPrinters)
		api.POST("/printer/network", s.handleAddNetworkPrinter)
		api.POST("/printer/:id/name", s.handleSetPrinterName)
		api.POST("/printer/:id/settings", s.handleSetPrinterSettings)

		api.POST("/render", s.handleRender)
		api.POST("/preview", limiter, s.handlePreview)
		api.POST("/print", limiter, s.handlePrint)

		api.GET("/report", s.handleGetReport)
		api.POST("/report/print", limiter, s.handlePrintReport)

		api.GET("/jobs", s.handleGetJobs)
		api.GET("/job/:id", s.handleGetJob)
		api.DELETE("/jobs", s.handleClearJobs)

		api.POST("/command", s.handleCommand)

		api.GET("/ws", s.handleWebSocket)
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the API server and blocks until it stops
func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and closes websocket clients
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.closeAll()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// sourceContext restricts document loading to inline documents unless the
// request came through bearer auth
func (s *Server) sourceContext(ctx context.Context) context.Context {
	if s.inlineOnly {
		return command.InlineOnly(ctx)
	}
	return ctx
}

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidDocument),
		errors.Is(err, receiptformat.ErrUnknownKind),
		errors.Is(err, store.ErrInvalidPeriod):
		return http.StatusBadRequest
	case errors.Is(err, printer.ErrPrinterNotFound),
		errors.Is(err, store.ErrNoSales):
		return http.StatusNotFound
	case errors.Is(err, command.ErrSourceNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, service.ErrReportsDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"version":      Version,
		"printers":     len(s.manager.GetAllPrinters()),
		"pending_jobs": s.queue.Pending(),
	})
}

// handleGetPrinters returns all detected printers
func (s *Server) handleGetPrinters(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"printers": s.manager.GetAllPrinters(),
	})
}

// handleSetPrinterName sets a custom name for a printer
func (s *Server) handleSetPrinterName(c *gin.Context) {
	printerID := c.Param("id")

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	if !s.manager.SetPrinterName(printerID, req.Name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "printer not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// handleSetPrinterSettings changes role, width or raster mode. Omitted
// fields keep their current value.
func (s *Server) handleSetPrinterSettings(c *gin.Context) {
	printerID := c.Param("id")

	var req struct {
		Role    *string `json:"role"`
		Columns *int    `json:"columns"`
		Raster  *bool   `json:"raster"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if s.manager.GetPrinter(printerID) == nil && s.manager.Registry().GetPrinterInfo(printerID) == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "printer not found"})
		return
	}

	settings := s.manager.Registry().GetSettings(printerID)
	if req.Role != nil {
		value := *req.Role
		if value == "none" {
			value = ""
		}
		role, err := registry.ParseRole(value)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		settings.Role = role
	}
	if req.Columns != nil {
		settings.Columns = *req.Columns
	}
	if req.Raster != nil {
		settings.Raster = *req.Raster
	}

	if err := s.manager.SetPrinterSettings(printerID, settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"settings": settings,
	})
}

// handleAddNetworkPrinter manually adds a network printer
func (s *Server) handleAddNetworkPrinter(c *gin.Context) {
	var req struct {
		Host        string `json:"host" binding:"required"`
		Port        int    `json:"port"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "host is required"})
		return
	}

	if req.Port == 0 {
		req.Port = printer.DefaultNetworkPort
	}
	if req.Description == "" {
		req.Description = fmt.Sprintf("Network: %s:%d", req.Host, req.Port)
	}

	printerID := s.manager.AddNetworkPrinter(req.Host, req.Port, req.Description)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"printer_id": printerID,
		"printer":    s.manager.GetPrinter(printerID),
	})
}

// documentRequest is the body shared by render, preview and print. The
// document may be inline or loaded from a path or URL.
type documentRequest struct {
	PrinterID    string                  `json:"printer_id"`
	Kind         string                  `json:"kind"`
	Document     *receiptformat.Document `json:"document"`
	DocumentPath string                  `json:"document_path"`
	DocumentURL  string                  `json:"document_url"`
	QR           string                  `json:"qr"`
}

func (s *Server) bindDocument(c *gin.Context) (*documentRequest, receiptformat.Kind, bool) {
	var req documentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, "", false
	}

	kind, err := receiptformat.ParseKind(req.Kind)
	if err != nil {
		abortWithError(c, err)
		return nil, "", false
	}

	ctx := s.sourceContext(c.Request.Context())
	switch {
	case req.DocumentURL != "":
		req.Document, err = command.LoadDocument(ctx, req.DocumentURL)
	case req.DocumentPath != "":
		req.Document, err = command.LoadDocument(ctx, req.DocumentPath)
	case req.Document == nil:
		err = errors.New("document, document_path, or document_url is required")
	default:
		err = receiptformat.Validate(req.Document)
	}
	if errors.Is(err, command.ErrSourceNotAllowed) {
		abortWithError(c, err)
		return nil, "", false
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%v: %v", service.ErrInvalidDocument, err)})
		return nil, "", false
	}

	return &req, kind, true
}

// handleRender returns the receipt text without printing it
func (s *Server) handleRender(c *gin.Context) {
	req, kind, ok := s.bindDocument(c)
	if !ok {
		return
	}

	text := s.service.Render(req.Document, kind)
	c.JSON(http.StatusOK, gin.H{
		"kind":  kind,
		"text":  text,
		"plain": renderer.Plain(text),
	})
}

// handlePreview returns the receipt as a black-and-white PNG
func (s *Server) handlePreview(c *gin.Context) {
	req, kind, ok := s.bindDocument(c)
	if !ok {
		return
	}

	img, err := s.service.Preview(req.Document, kind, req.QR)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Content-Type", "image/png")
	c.Status(http.StatusOK)
	if err := preview.EncodePNG(c.Writer, img); err != nil {
		c.Error(err)
	}
}

// handlePrint handles a print request
func (s *Server) handlePrint(c *gin.Context) {
	req, kind, ok := s.bindDocument(c)
	if !ok {
		return
	}

	res, err := s.service.Print(c.Request.Context(), service.PrintRequest{
		PrinterID: req.PrinterID,
		Kind:      kind,
		Document:  req.Document,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"job":     res,
		"job_id":  res.JobID,
	})
}

// handleGetReport returns the sales report document and its rendered text
func (s *Server) handleGetReport(c *gin.Context) {
	doc, err := s.service.Report(c.Request.Context(), c.Query("period"), c.Query("by"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report": doc,
		"text":   renderer.Plain(s.service.Render(doc, receiptformat.KindSalesReport)),
	})
}

func (s *Server) handlePrintReport(c *gin.Context) {
	var req struct {
		PrinterID  string `json:"printer_id"`
		Period     string `json:"period"`
		PrintedBy  string `json:"printed_by"`
		PaperWidth int    `json:"paper_width"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := s.service.PrintReport(c.Request.Context(), service.ReportRequest{
		PrinterID:  req.PrinterID,
		Period:     req.Period,
		PrintedBy:  req.PrintedBy,
		PaperWidth: req.PaperWidth,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"job":     res,
		"job_id":  res.JobID,
	})
}

// handleGetJobs returns all print jobs
func (s *Server) handleGetJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": s.queue.GetAllJobs()})
}

// handleGetJob returns a specific print job
func (s *Server) handleGetJob(c *gin.Context) {
	job := s.queue.GetJob(c.Param("id"))
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	c.JSON(http.StatusOK, job)
}

// handleClearJobs drops completed jobs, or failed ones too with ?all=true
func (s *Server) handleClearJobs(c *gin.Context) {
	var n int
	if c.Query("all") == "true" {
		n = s.queue.ClearFinished()
	} else {
		n = s.queue.ClearCompleted()
	}
	c.JSON(http.StatusOK, gin.H{"cleared": n})
}

// handleCommand handles command execution requests
func (s *Server) handleCommand(c *gin.Context) {
	var req struct {
		Command string `json:"command" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "command is required"})
		return
	}

	result := s.executor.Execute(s.sourceContext(c.Request.Context()), req.Command)

	if !result.Success {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   result.Error,
		})
		return
	}

	response := gin.H{"success": true}
	if result.Message != "" {
		response["message"] = result.Message
	}
	for k, v := range result.Data {
		response[k] = v
	}
	c.JSON(http.StatusOK, response)
}
