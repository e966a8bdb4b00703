package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jstewartrr/sm-mcp-gateway-v2/logger"
	"github.com/jstewartrr/sm-mcp-gateway-v2/mcp"
	"github.com/jstewartrr/sm-mcp-gateway-v2/mcp/jsonrpc"
	"github.com/jstewartrr/sm-mcp-gateway-v2/transport/shared"
)

const maxJSONRPCBodyBytes = 1 << 20

// EndpointPath is where JSON-RPC requests are posted and what /sse
// announces.
const EndpointPath = "/mcp"

func RegisterRoutes(e *echo.Echo, s *Server) {
	e.GET("/", s.handleHealth)
	e.GET("/health", s.handleHealth)
	e.GET("/sse", s.handleSSE)
	e.POST(EndpointPath, s.handleMCP)
	e.GET("/tools", s.handleTools)
	e.GET("/status", s.handleStatus)
	if s.opts.MetricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(s.opts.MetricsHandler))
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "healthy",
		"version":   s.gateway.Info().Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleTools(c echo.Context) error {
	tools := s.gateway.Catalog()
	return c.JSON(http.StatusOK, map[string]any{
		"tools":       tools,
		"total_tools": len(tools),
	})
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.gateway.Status())
}

func (s *Server) handleMCP(c echo.Context) error {
	limitedBody := http.MaxBytesReader(c.Response(), c.Request().Body, maxJSONRPCBodyBytes)
	defer limitedBody.Close()

	body, err := io.ReadAll(limitedBody)
	if err != nil {
		if _, ok := errors.AsType[*http.MaxBytesError](err); ok {
			logger.Warn("Request body too large", "limit_bytes", maxJSONRPCBodyBytes, "remote_addr", c.RealIP())
			return c.JSON(http.StatusRequestEntityTooLarge, jsonrpc.NewErrorResponse(nil, int(jsonrpc.ErrInvalidRequest), "Request body too large", nil))
		}
		logger.Error("Failed to read request body", "error", err)
		return c.JSON(http.StatusInternalServerError, jsonrpc.NewErrorResponse(nil, int(jsonrpc.ErrInternalError), err.Error(), nil))
	}

	resp, status := shared.ProcessFrame(c.Request().Context(), s.gateway, body)
	if resp == nil {
		return c.NoContent(status)
	}
	return c.JSON(status, resp)
}

func (s *Server) handleSSE(c echo.Context) error {
	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return c.JSON(http.StatusInternalServerError, jsonrpc.NewErrorResponse(nil, int(jsonrpc.ErrInternalError), "SSE stream is not available", nil))
	}

	header := c.Response().Header()
	header.Set(echo.HeaderContentType, "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)
	flusher.Flush()

	streamCtx, stopStream := context.WithCancel(c.Request().Context())
	defer stopStream()

	writer := NewSSEWriter(c.Response().Writer, flusher, stopStream)
	defer writer.Close()

	streamID := uuid.NewString()
	s.streams.Add(streamID, c.RealIP(), writer)
	s.opts.Metrics.StreamOpened()
	logger.Info("SSE stream opened", "stream_id", streamID, "remote_addr", c.RealIP())
	defer func() {
		s.streams.Remove(streamID)
		s.opts.Metrics.StreamClosed()
		logger.Info("SSE stream closed", "stream_id", streamID)
	}()

	announce := jsonrpc.NewNotification(mcp.MethodEndpoint, mcp.EndpointParams{Endpoint: EndpointPath})
	if err := writer.SendData(announce); err != nil {
		logger.Warn("Failed to write endpoint event", "stream_id", streamID, "error", err)
		return nil
	}

	KeepAlive(streamCtx, writer, s.opts.Keepalive)
	return nil
}
