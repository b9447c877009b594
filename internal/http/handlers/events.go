package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/yardsale/internal/actorctx"
	"github.com/geocoder89/yardsale/internal/cache"
	"github.com/geocoder89/yardsale/internal/domain/event"
	"github.com/geocoder89/yardsale/internal/service/events"
	"github.com/geocoder89/yardsale/internal/utils"
)

type EventsService interface {
	Create(ctx context.Context, actor actorctx.Actor, p event.CreateParams) (*event.Event, error)
	Get(ctx context.Context, actor actorctx.Actor, id string) (*event.Event, error)
	List(ctx context.Context, q events.ListQuery) (events.Page, error)
	ListMine(ctx context.Context, actor actorctx.Actor, after *event.Cursor, limit int) (events.Page, error)
	Update(ctx context.Context, actor actorctx.Actor, id string, u events.Update) (*event.Event, error)
	Publish(ctx context.Context, actor actorctx.Actor, id string) (*event.Event, error)
	Cancel(ctx context.Context, actor actorctx.Actor, id, reason string) (*event.Event, error)
	Postpone(ctx context.Context, actor actorctx.Actor, id string, sc events.Schedule, reason string) (*event.Event, error)
	Delete(ctx context.Context, actor actorctx.Actor, id string) error
}

type EventsHandler struct {
	svc   EventsService
	cache *cache.Cache
}

// NewEventsHandler wires the command layer. nearbyCache may be nil; when set,
// every successful write drops the cached nearby results.
func NewEventsHandler(svc EventsService, nearbyCache *cache.Cache) *EventsHandler {
	return &EventsHandler{svc: svc, cache: nearbyCache}
}

func (h *EventsHandler) CreateEvent(ctx *gin.Context) {
	var req CreateEventRequest

	if !BindJSON(ctx, &req) {
		return
	}

	actor := actorFrom(ctx)

	cctx, cancel := requestContext(ctx)
	defer cancel()

	e, err := h.svc.Create(cctx, actor, req.params(actor.UserID))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	h.invalidate()
	ctx.Header("Location", "/events/"+e.ID())
	ctx.JSON(http.StatusCreated, toEventResponse(e))
}

func (h *EventsHandler) GetEventByID(ctx *gin.Context) {
	id, ok := eventIDParam(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	e, err := h.svc.Get(cctx, actorFrom(ctx), id)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, toEventResponse(e))
}

type listEventsQuery struct {
	CategoryID string `form:"categoryId" binding:"omitempty,uuid"`
	Type       string `form:"type"`
	From       string `form:"from"`
	To         string `form:"to"`
	Cursor     string `form:"cursor"`
	Limit      int    `form:"limit" binding:"omitempty,gte=1,lte=100"`
}

func (h *EventsHandler) ListEvents(ctx *gin.Context) {
	var qp listEventsQuery

	if !BindQuery(ctx, &qp) {
		return
	}

	q := events.ListQuery{Limit: qp.Limit}

	if qp.CategoryID != "" {
		q.CategoryID = &qp.CategoryID
	}
	if qp.Type != "" {
		t := event.Type(qp.Type)
		if !t.IsValid() {
			RespondBadRequest(ctx, "Invalid query parameters", gin.H{"field": "type", "value": qp.Type})
			return
		}
		q.Type = &t
	}

	var ok bool
	if q.From, ok = parseTimeQuery(ctx, "from", qp.From); !ok {
		return
	}
	if q.To, ok = parseTimeQuery(ctx, "to", qp.To); !ok {
		return
	}
	if q.After, ok = parseCursor(ctx, qp.Cursor); !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	page, err := h.svc.List(cctx, q)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	respondPage(ctx, page)
}

func (h *EventsHandler) ListMyEvents(ctx *gin.Context) {
	after, ok := parseCursor(ctx, ctx.Query("cursor"))
	if !ok {
		return
	}

	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > events.MaxListLimit {
			RespondBadRequest(ctx, "Invalid query parameters", gin.H{"field": "limit", "value": raw})
			return
		}
		limit = n
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	page, err := h.svc.ListMine(cctx, actorFrom(ctx), after, limit)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	respondPage(ctx, page)
}

func (h *EventsHandler) UpdateEvent(ctx *gin.Context) {
	id, ok := eventIDParam(ctx)
	if !ok {
		return
	}

	var req UpdateEventRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	e, err := h.svc.Update(cctx, actorFrom(ctx), id, req.update())
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	h.invalidate()
	ctx.JSON(http.StatusOK, toEventResponse(e))
}

func (h *EventsHandler) PublishEvent(ctx *gin.Context) {
	id, ok := eventIDParam(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	e, err := h.svc.Publish(cctx, actorFrom(ctx), id)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	h.invalidate()
	ctx.JSON(http.StatusOK, toEventResponse(e))
}

func (h *EventsHandler) CancelEvent(ctx *gin.Context) {
	id, ok := eventIDParam(ctx)
	if !ok {
		return
	}

	var req CancelEventRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	e, err := h.svc.Cancel(cctx, actorFrom(ctx), id, req.Reason)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	h.invalidate()
	ctx.JSON(http.StatusOK, toEventResponse(e))
}

func (h *EventsHandler) PostponeEvent(ctx *gin.Context) {
	id, ok := eventIDParam(ctx)
	if !ok {
		return
	}

	var req PostponeEventRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	sc := events.Schedule{Start: req.StartDate, End: req.EndDate}

	e, err := h.svc.Postpone(cctx, actorFrom(ctx), id, sc, req.Reason)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	h.invalidate()
	ctx.JSON(http.StatusOK, toEventResponse(e))
}

func (h *EventsHandler) DeleteEvent(ctx *gin.Context) {
	id, ok := eventIDParam(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	if err := h.svc.Delete(cctx, actorFrom(ctx), id); err != nil {
		RespondAppError(ctx, err)
		return
	}

	h.invalidate()
	ctx.Status(http.StatusNoContent)
}

func (h *EventsHandler) invalidate() {
	if h.cache != nil {
		h.cache.DeletePrefix(utils.NearbyCachePrefix)
	}
}

func eventIDParam(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "event id must be a valid UUID", gin.H{"field": "id"})
		return "", false
	}
	return id, true
}

func parseTimeQuery(ctx *gin.Context, name, raw string) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		RespondBadRequest(ctx, "Invalid query parameters", gin.H{"field": name, "value": raw, "format": "RFC3339"})
		return nil, false
	}
	t = t.UTC()
	return &t, true
}

func parseCursor(ctx *gin.Context, raw string) (*event.Cursor, bool) {
	if raw == "" {
		return nil, true
	}
	c, err := utils.DecodeEventCursor(raw)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidCursor) {
			RespondBadRequest(ctx, "Invalid cursor", gin.H{"field": "cursor"})
			return nil, false
		}
		RespondInternal(ctx, "Could not read cursor")
		return nil, false
	}
	return &c, true
}

func respondPage(ctx *gin.Context, page events.Page) {
	items := make([]EventResponse, 0, len(page.Items))
	for _, e := range page.Items {
		items = append(items, toEventResponse(e))
	}

	resp := EventPageResponse{Items: items, Count: len(items)}

	if page.Next != nil {
		next, err := utils.EncodeEventCursor(*page.Next)
		if err != nil {
			RespondInternal(ctx, "Could not build cursor")
			return
		}
		resp.NextCursor = &next
		resp.HasMore = true
	}

	ctx.JSON(http.StatusOK, resp)
}
