package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/yardsale/internal/actorctx"
	"github.com/geocoder89/yardsale/internal/service/favorites"
)

type FavoritesService interface {
	Toggle(ctx context.Context, actor actorctx.Actor, eventID string) (favorites.ToggleResult, error)
	ListMine(ctx context.Context, actor actorctx.Actor) ([]favorites.Entry, error)
}

type FavoritesHandler struct {
	svc FavoritesService
}

func NewFavoritesHandler(svc FavoritesService) *FavoritesHandler {
	return &FavoritesHandler{svc: svc}
}

type ToggleFavoriteResponse struct {
	EventID    string `json:"eventId"`
	IsFavorite bool   `json:"isFavorite"`
	Action     string `json:"action"`
}

func (h *FavoritesHandler) ToggleFavorite(ctx *gin.Context) {
	id, ok := eventIDParam(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	res, err := h.svc.Toggle(cctx, actorFrom(ctx), id)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, ToggleFavoriteResponse{
		EventID:    id,
		IsFavorite: res.IsFavorite,
		Action:     res.Action,
	})
}

type FavoriteResponse struct {
	FavoritedAt time.Time     `json:"favoritedAt"`
	Event       EventResponse `json:"event"`
}

func (h *FavoritesHandler) ListMyFavorites(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx)
	defer cancel()

	entries, err := h.svc.ListMine(cctx, actorFrom(ctx))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	items := make([]FavoriteResponse, 0, len(entries))
	for _, en := range entries {
		items = append(items, FavoriteResponse{
			FavoritedAt: en.Favorite.CreatedAt,
			Event:       toEventResponse(en.Event),
		})
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}
