// handlers/pageview_handlers.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"tinyblog/pageviews/apperr"
	"tinyblog/pageviews/geo"
	"tinyblog/pageviews/logs"
	"tinyblog/pageviews/metrics"
	"tinyblog/pageviews/middleware"
	"tinyblog/pageviews/models"
	"tinyblog/pageviews/store"
	"tinyblog/pageviews/utils"
)

const defaultMaxBodyBytes = 16 << 10

// PageViewOptions configures the single page view handler.
type PageViewOptions struct {
	IncludeGeo bool
	// StrictStatus answers validation failures with 400 and store failures with 500.
	// When false every handled request is 200 and only the body differs.
	StrictStatus bool
	ReadEnabled  bool
	Logger       logs.Logger
	Geo          geo.Resolver
	// Timeout bounds each store call. Zero leaves the request context as is.
	Timeout      time.Duration
	MaxBodyBytes int64
}

// PageViewHandlers serves the page view routes over one store.
type PageViewHandlers struct {
	Store store.PageViewStore
	opts  PageViewOptions
}

// NewPageViewHandlers applies defaults for unset options.
func NewPageViewHandlers(s store.PageViewStore, opts PageViewOptions) *PageViewHandlers {
	if opts.Logger == nil {
		opts.Logger = logs.Nop()
	}
	if opts.Geo == nil {
		opts.Geo = geo.NoneResolver{}
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &PageViewHandlers{Store: s, opts: opts}
}

func (h *PageViewHandlers) RegisterRoutes(r gin.IRouter) {
	r.POST("/pageViews", h.Ingest)
	if h.opts.ReadEnabled {
		r.GET("/pageViews", h.List)
		r.GET("/pageViews/:id", h.Get)
	}
}

// Ingest records one page view beacon.
func (h *PageViewHandlers) Ingest(c *gin.Context) {
	req, appErr := h.parseBody(c)
	if appErr != nil {
		h.fail(c, "ingest", appErr)
		return
	}

	view, appErr := h.buildPageView(c, req)
	if appErr != nil {
		h.fail(c, "ingest", appErr)
		return
	}

	ctx, cancel := h.storeContext(c)
	defer cancel()

	start := time.Now()
	err := guard(func() error { return h.Store.Insert(ctx, view) })
	metrics.ObserveStore("insert", start, err)
	if err != nil {
		h.fail(c, "ingest", apperr.StoreWrite(err))
		return
	}

	metrics.Requests.WithLabelValues("ingest", "ok").Inc()
	c.String(http.StatusOK, "ok")
}

// List returns every stored page view. No paging and no order guarantee.
func (h *PageViewHandlers) List(c *gin.Context) {
	ctx, cancel := h.storeContext(c)
	defer cancel()

	var views []models.PageView
	start := time.Now()
	err := guard(func() error {
		var err error
		views, err = h.Store.SelectAll(ctx)
		return err
	})
	metrics.ObserveStore("select_all", start, err)
	if err != nil {
		h.fail(c, "list", apperr.StoreRead(err))
		return
	}
	if views == nil {
		views = []models.PageView{}
	}

	metrics.Requests.WithLabelValues("list", "ok").Inc()
	c.JSON(http.StatusOK, views)
}

// Get returns one page view by id.
func (h *PageViewHandlers) Get(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	ctx, cancel := h.storeContext(c)
	defer cancel()

	var view *models.PageView
	start := time.Now()
	err := guard(func() error {
		var err error
		view, err = h.Store.FindByID(ctx, id)
		return err
	})
	metrics.ObserveStore("find_by_id", start, err)
	if errors.Is(err, store.ErrNotFound) {
		h.fail(c, "get", apperr.NotFound(err))
		return
	}
	if err != nil {
		h.fail(c, "get", apperr.StoreRead(err))
		return
	}

	metrics.Requests.WithLabelValues("get", "ok").Inc()
	c.JSON(http.StatusOK, view)
}

func (h *PageViewHandlers) parseBody(c *gin.Context) (*models.PageViewRequest, *apperr.Error) {
	if c.Request.Body == nil {
		return nil, apperr.MalformedRequest(errors.New("request has no body"))
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxBodyBytes)

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, apperr.MalformedRequest(fmt.Errorf("failed to read body: %w", err))
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, apperr.MalformedRequest(errors.New("request body is empty"))
	}

	// A pointer target lets a literal null be told apart from {}.
	var req *models.PageViewRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, apperr.MalformedRequest(err)
	}
	if req == nil {
		return nil, apperr.MalformedRequest(errors.New("request body is not a JSON object"))
	}
	return req, nil
}

// buildPageView validates path before ip; the first failing check wins.
func (h *PageViewHandlers) buildPageView(c *gin.Context, req *models.PageViewRequest) (*models.PageView, *apperr.Error) {
	if strings.TrimSpace(req.Path) == "" {
		return nil, apperr.MissingField("path")
	}
	ip := strings.TrimSpace(c.ClientIP())
	if ip == "" {
		return nil, apperr.MissingField("ip")
	}

	view := &models.PageView{
		Path: req.Path,
		IP:   ip,
	}
	if req.Referrer != nil && *req.Referrer != "" {
		referrer := *req.Referrer
		view.Referrer = &referrer
	}

	if h.opts.IncludeGeo {
		if loc := h.opts.Geo.Resolve(c.Request); loc != nil {
			view.City = loc.City
			view.Country = loc.Country
			if loc.Latitude != nil && loc.Longitude != nil {
				view.Location = utils.StringPtr(utils.FormatPoint(*loc.Longitude, *loc.Latitude))
			}
		}
	}
	return view, nil
}

func (h *PageViewHandlers) storeContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.opts.Timeout > 0 {
		return context.WithTimeout(c.Request.Context(), h.opts.Timeout)
	}
	return c.Request.Context(), func() {}
}

// fail logs e and writes its public message. Store detail never reaches the body.
func (h *PageViewHandlers) fail(c *gin.Context, handler string, e *apperr.Error) {
	requestID := middleware.RequestID(c)
	switch e.Kind {
	case apperr.KindMalformedRequest:
		h.opts.Logger.Debug("malformed page view request", "request_id", requestID, "error", e.Err)
	case apperr.KindMissingField:
		h.opts.Logger.Info("page view request rejected", "request_id", requestID, "field", e.Field)
	case apperr.KindNotFound:
		h.opts.Logger.Debug("page view not found", "request_id", requestID, "id", c.Param("id"))
	default:
		h.opts.Logger.Info("page view store operation failed", "request_id", requestID, "kind", string(e.Kind), "error", e.Err)
	}
	metrics.Requests.WithLabelValues(handler, string(e.Kind)).Inc()

	status := http.StatusOK
	if h.opts.StrictStatus {
		status = e.Status()
	}
	c.String(status, e.Message())
}

// guard turns a panicking store call into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page view store panicked: %v", r)
		}
	}()
	return fn()
}
