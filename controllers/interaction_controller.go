package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"hcplog/models"
	"hcplog/store"
)

// InteractionService is the service surface the handlers need.
type InteractionService interface {
	LogInteraction(ctx context.Context, in models.InteractionInput) (*models.Interaction, error)
	ChatLog(ctx context.Context, in models.ChatInput) (*models.Interaction, error)
	List(ctx context.Context) ([]models.Interaction, error)
	Get(ctx context.Context, id int64) (*models.Interaction, error)
	Update(ctx context.Context, id int64, in models.InteractionInput) (*models.Interaction, error)
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

type InteractionController struct {
	svc InteractionService
}

func NewInteractionController(svc InteractionService) *InteractionController {
	return &InteractionController{svc: svc}
}

func (ic *InteractionController) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "HCP CRM backend running"})
}

func (ic *InteractionController) Health(c *gin.Context) {
	if err := ic.svc.Ping(c.Request.Context()); err != nil {
		slog.Error("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (ic *InteractionController) LogInteraction(c *gin.Context) {
	var req models.InteractionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := ic.svc.LogInteraction(c.Request.Context(), req)
	if err != nil {
		ic.fail(c, "failed to log interaction", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (ic *InteractionController) ChatLog(c *gin.Context) {
	var req models.ChatInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := ic.svc.ChatLog(c.Request.Context(), req)
	if err != nil {
		ic.fail(c, "failed to save chat log", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (ic *InteractionController) List(c *gin.Context) {
	list, err := ic.svc.List(c.Request.Context())
	if err != nil {
		ic.fail(c, "failed to list interactions", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (ic *InteractionController) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	rec, err := ic.svc.Get(c.Request.Context(), id)
	if err != nil {
		ic.fail(c, "failed to get interaction", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (ic *InteractionController) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req models.InteractionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := ic.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		ic.fail(c, "failed to update interaction", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (ic *InteractionController) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := ic.svc.Delete(c.Request.Context(), id); err != nil {
		ic.fail(c, "failed to delete interaction", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deleted successfully"})
}

// fail maps not-found to 404 and anything else to a logged 500.
func (ic *InteractionController) fail(c *gin.Context, msg string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	slog.Error(msg, "error", err, "path", c.FullPath())
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return 0, false
	}
	return id, true
}
