package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"mime"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	staticcatalog "metroterminal/internal/adapter/catalog/static"
	"metroterminal/internal/adapter/notify/feed"
	"metroterminal/internal/app/geiger"
	"metroterminal/internal/app/ports"
	"metroterminal/internal/app/session"
	"metroterminal/internal/domain/metro"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

type terminal interface {
	Submit(ctx context.Context, input string) (session.Outcome, error)
	Toggle(ctx context.Context, tool string) error
	ReplaceResource(ctx context.Context, tool string) error
	Position(ctx context.Context, fix geiger.Fix) (float64, error)
	SensorError(ctx context.Context, message string)
	ResetExposure(ctx context.Context)
	Replay(ctx context.Context, n int) error
	Messages() []metro.HistoryEntry
	Snapshot() session.Snapshot
}

type eventFeed interface {
	Since(after uint64) []feed.Event
	Cursor() uint64
}

type assetProvider interface {
	Asset(ctx context.Context, path string) ([]byte, error)
}

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

// SensorOptions mirrors the geolocation watch options the client should use.
type SensorOptions struct {
	EnableHighAccuracy bool  `json:"enable_high_accuracy"`
	MaximumAgeMs       int64 `json:"maximum_age_ms"`
	TimeoutMs          int64 `json:"timeout_ms"`
}

type Handler struct {
	Terminal terminal
	Events   eventFeed
	Assets   assetProvider
	Sensor   SensorOptions
	KPI      kpiSnapshotProvider

	// AllowOrigin is the CORS origin; empty allows any.
	AllowOrigin string
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware(h.AllowOrigin))

	api := s.Group("/api/terminal")
	api.POST("/input", h.input)
	api.POST("/tools/:tool/toggle", h.toggle)
	api.POST("/tools/:tool/replace", h.replace)
	api.POST("/position", h.position)
	api.POST("/position/error", h.positionError)
	api.POST("/exposure/reset", h.resetExposure)
	api.GET("/state", h.state)
	api.GET("/radio", h.radio)
	api.POST("/radio/:index/replay", h.replay)
	api.GET("/sensor", h.sensor)

	s.GET("/assets/*filepath", h.asset)
	s.GET("/ops/kpi", h.kpi)
}

type inputRequest struct {
	Code string `json:"code"`
}

type inputResponse struct {
	Consumed bool   `json:"consumed"`
	Status   string `json:"status"`
	Result   string `json:"result"`
}

type positionRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	// Timestamp is milliseconds since the epoch, as reported by the browser.
	Timestamp int64 `json:"timestamp"`
}

type positionErrorRequest struct {
	Message string `json:"message"`
}

type stateResponse struct {
	session.Snapshot
	Events []feed.Event `json:"events"`
	Cursor uint64       `json:"cursor"`
}

func (h Handler) input(c context.Context, ctx *app.RequestContext) {
	var body inputRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	out, err := h.Terminal.Submit(c, body.Code)
	result, ok := inputResult(err)
	if !ok {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, inputResponse{Consumed: out.Consumed, Status: out.Status, Result: result})
}

// inputResult names the game outcome of a submitted line; ok is false for
// failures that are not part of the game.
func inputResult(err error) (string, bool) {
	switch {
	case err == nil:
		return "ok", true
	case errors.Is(err, metro.ErrUnknownCode):
		return "unknown_code", true
	case errors.Is(err, metro.ErrAlreadyUsed):
		return "already_used", true
	case errors.Is(err, metro.ErrUnknownKind):
		return "unknown_kind", true
	default:
		return "", false
	}
}

func (h Handler) toggle(c context.Context, ctx *app.RequestContext) {
	if err := h.Terminal.Toggle(c, ctx.Param("tool")); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"tools": h.Terminal.Snapshot().Tools})
}

func (h Handler) replace(c context.Context, ctx *app.RequestContext) {
	if err := h.Terminal.ReplaceResource(c, ctx.Param("tool")); err != nil {
		writeError(ctx, err)
		return
	}
	snap := h.Terminal.Snapshot()
	ctx.JSON(consts.StatusOK, map[string]any{"tools": snap.Tools, "resources": snap.Resources})
}

func (h Handler) position(c context.Context, ctx *app.RequestContext) {
	var body positionRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	fix := geiger.Fix{Latitude: body.Latitude, Longitude: body.Longitude, Accuracy: body.Accuracy}
	if body.Timestamp > 0 {
		fix.At = time.UnixMilli(body.Timestamp)
	}
	distance, err := h.Terminal.Position(c, fix)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"distance": distance})
}

func (h Handler) positionError(c context.Context, ctx *app.RequestContext) {
	var body positionErrorRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	h.Terminal.SensorError(c, strings.TrimSpace(body.Message))
	ctx.JSON(consts.StatusOK, map[string]any{"status": h.Terminal.Snapshot().Status})
}

func (h Handler) resetExposure(c context.Context, ctx *app.RequestContext) {
	h.Terminal.ResetExposure(c)
	ctx.JSON(consts.StatusOK, map[string]any{"exposure": h.Terminal.Snapshot().Exposure})
}

func (h Handler) state(_ context.Context, ctx *app.RequestContext) {
	after, err := parseCursor(ctx.Query("after"))
	if err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_cursor", "after must be a non-negative integer")
		return
	}
	resp := stateResponse{Snapshot: h.Terminal.Snapshot(), Events: []feed.Event{}}
	if h.Events != nil {
		resp.Events = h.Events.Since(after)
		resp.Cursor = h.Events.Cursor()
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) radio(_ context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]any{"messages": h.Terminal.Messages()})
}

func (h Handler) replay(c context.Context, ctx *app.RequestContext) {
	n, err := strconv.Atoi(ctx.Param("index"))
	if err != nil || n < 0 {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_index", "index must be a non-negative integer")
		return
	}
	if err := h.Terminal.Replay(c, n); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.SetStatusCode(consts.StatusNoContent)
}

func (h Handler) sensor(_ context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, h.Sensor)
}

func (h Handler) asset(c context.Context, ctx *app.RequestContext) {
	path := strings.TrimPrefix(ctx.Param("filepath"), "/")
	if path == "" {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_filepath", "invalid filepath")
		return
	}
	if h.Assets == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "asset provider not configured")
		return
	}
	b, err := h.Assets.Asset(c, path)
	if err != nil {
		writeError(ctx, err)
		return
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ctx.Data(consts.StatusOK, contentType, b)
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured")
		return
	}
	ctx.JSON(consts.StatusOK, h.KPI.SnapshotAny())
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func parseCursor(raw string) (uint64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseUint(raw, 10, 64)
}

func writeError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, metro.ErrUnknownTool):
		writeErrorBody(ctx, consts.StatusNotFound, "unknown_tool", err.Error())
	case errors.Is(err, metro.ErrOverlayBusy):
		writeErrorBody(ctx, consts.StatusConflict, "overlay_busy", err.Error())
	case errors.Is(err, metro.ErrNeedsReplacement):
		writeErrorBody(ctx, consts.StatusConflict, "needs_replacement", err.Error())
	case errors.Is(err, metro.ErrInsufficientResource):
		writeErrorBody(ctx, consts.StatusConflict, "insufficient_resource", err.Error())
	case errors.Is(err, metro.ErrNotReplaceable):
		writeErrorBody(ctx, consts.StatusBadRequest, "not_replaceable", err.Error())
	case errors.Is(err, metro.ErrSensorFailure):
		writeErrorBody(ctx, consts.StatusUnprocessableEntity, "sensor_failure", err.Error())
	case errors.Is(err, metro.ErrNoAudio):
		writeErrorBody(ctx, consts.StatusConflict, "no_audio", err.Error())
	case errors.Is(err, staticcatalog.ErrInvalidAssetPath):
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_filepath", err.Error())
	case errors.Is(err, ports.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", "not found")
	default:
		hlog.Errorf("terminal api: %v", err)
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
