package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yourorg/connector-adapter/internal/adapter"
	apperrors "github.com/yourorg/connector-adapter/internal/errors"
	"github.com/yourorg/connector-adapter/internal/orchestrator"
)

const (
	serviceName     = "connector-adapter"
	requestIDHeader = "X-Request-ID"
)

func setupRouter(a *app) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), otelgin.Middleware(serviceName), accessLog(a.logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connectors": a.registry.Names()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.metrics, promhttp.HandlerOpts{})))

	v1 := router.Group("/v1/connectors")
	v1.GET("", a.listConnectorsHandler)
	v1.POST("/:connector/:operation/build", a.buildHandler)
	v1.POST("/:connector/:operation/parse", a.parseHandler)
	v1.POST("/:connector/:operation/execute", a.executeHandler)
	return router
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func accessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.InfoContext(c.Request.Context(), "http request",
			"request_id", c.GetString("request_id"),
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

// wireView is the API rendering of a built request. Header values are masked;
// the body is the exact payload the connector expects.
type wireView struct {
	Method      string            `json:"method"`
	URL         string            `json:"url"`
	ContentType string            `json:"content_type"`
	Headers     map[string]string `json:"headers"`
	Body        any               `json:"body"`
}

func newWireView(w *adapter.WireRequest) wireView {
	headers := make(map[string]string, len(w.Headers))
	for _, name := range w.HeaderNames() {
		headers[name] = w.Headers[name].String()
	}
	var body any = string(w.Body)
	if w.IsJSON() && json.Valid(w.Body) {
		body = json.RawMessage(w.Body)
	}
	return wireView{
		Method:      w.Method,
		URL:         w.URL,
		ContentType: w.ContentType,
		Headers:     headers,
		Body:        body,
	}
}

func (a *app) listConnectorsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"connectors": a.registry.Names(), "operations": adapter.Operations})
}

// bindCall decodes the operation and body shared by every connector route.
// It writes the 400 response itself and reports whether to continue.
func bindCall(c *gin.Context) (adapter.Operation, *callPayload, bool) {
	op, err := adapter.ParseOperation(c.Param("operation"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", nil, false
	}
	var payload callPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return "", nil, false
	}
	return op, &payload, true
}

func (a *app) buildHandler(c *gin.Context) {
	op, payload, ok := bindCall(c)
	if !ok {
		return
	}
	req, err := payload.request(op)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	auth, err := payload.auth()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wire, err := a.proc.Build(c.Request.Context(), c.Param("connector"), op, req, auth)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newWireView(wire))
}

func (a *app) parseHandler(c *gin.Context) {
	op, payload, ok := bindCall(c)
	if !ok {
		return
	}
	req, err := payload.request(op)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if payload.Response == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "response is required"})
		return
	}

	out, err := a.proc.Parse(c.Request.Context(), c.Param("connector"), op, req, payload.Response.wire())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (a *app) executeHandler(c *gin.Context) {
	op, payload, ok := bindCall(c)
	if !ok {
		return
	}
	req, err := payload.request(op)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	auth, err := payload.auth()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := a.orch.Execute(c.Request.Context(), orchestrator.Call{
		Connector: c.Param("connector"),
		Operation: op,
		Request:   req,
		Auth:      auth,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func writeError(c *gin.Context, err error) {
	var ce *apperrors.ConnectorError
	switch {
	case errors.As(err, &ce):
		c.JSON(ce.HTTPStatusCode(), gin.H{"error": ce})
	case errors.Is(err, orchestrator.ErrTransport):
		c.JSON(http.StatusBadGateway, gin.H{"error": gin.H{"kind": "transport", "message": err.Error()}})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"kind": "internal", "message": err.Error()}})
	}
}
