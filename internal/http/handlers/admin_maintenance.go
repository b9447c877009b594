package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/yardsale/internal/service/lifecycle"
)

// Maintenance is the part of the lifecycle service operators may trigger
// by hand, outside the worker's schedule.
type Maintenance interface {
	Sweep(ctx context.Context) (lifecycle.SweepResult, error)
	ReconcileFavoriteCounts(ctx context.Context) (int, error)
}

type AdminMaintenanceHandler struct {
	svc Maintenance
}

func NewAdminMaintenanceHandler(svc Maintenance) *AdminMaintenanceHandler {
	return &AdminMaintenanceHandler{svc: svc}
}

// POST /admin/lifecycle/sweep
func (h *AdminMaintenanceHandler) Sweep(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 30*time.Second)
	defer cancel()

	res, err := h.svc.Sweep(cctx)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	slog.Default().InfoContext(cctx, "admin.lifecycle.sweep",
		"activated", res.Activated,
		"completed", res.Completed,
		"request_id", requestIDFrom(ctx),
	)

	ctx.JSON(http.StatusOK, gin.H{
		"activated": res.Activated,
		"completed": res.Completed,
	})
}

// POST /admin/favorites/reconcile
func (h *AdminMaintenanceHandler) ReconcileFavorites(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 30*time.Second)
	defer cancel()

	fixed, err := h.svc.ReconcileFavoriteCounts(cctx)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	slog.Default().InfoContext(cctx, "admin.favorites.reconcile",
		"fixed", fixed,
		"request_id", requestIDFrom(ctx),
	)

	ctx.JSON(http.StatusOK, gin.H{"fixed": fixed})
}
