package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/PanelKit/backend/internal/api/ws"
	"github.com/GriffinCanCode/PanelKit/backend/internal/domain/bus"
	"github.com/GriffinCanCode/PanelKit/backend/internal/domain/panels"
	"github.com/GriffinCanCode/PanelKit/backend/internal/domain/persistence"
	"github.com/GriffinCanCode/PanelKit/backend/internal/domain/plugin"
	"github.com/GriffinCanCode/PanelKit/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/PanelKit/backend/internal/shared/types"
)

// Handlers bundles the HTTP surface over the coordination core.
type Handlers struct {
	panels  *panels.Registry
	bus     *bus.Bus
	plugins *plugin.Registry
	persist *persistence.Manager
	hub     *ws.Hub
	logger  *zap.Logger
	metrics *monitoring.Metrics
	started time.Time
}

// NewHandlers creates the HTTP handler set.
func NewHandlers(
	panelReg *panels.Registry,
	messageBus *bus.Bus,
	plugins *plugin.Registry,
	persist *persistence.Manager,
	hub *ws.Hub,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		panels:  panelReg,
		bus:     messageBus,
		plugins: plugins,
		persist: persist,
		hub:     hub,
		logger:  logger,
		started: time.Now(),
	}
}

// WithMetrics adds metrics tracking to the handlers.
func (h *Handlers) WithMetrics(metrics *monitoring.Metrics) *Handlers {
	h.metrics = metrics
	return h
}

// Root returns service identification
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "panelkit-backend",
		"status":  "running",
	})
}

// Health returns service health
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"panels":         h.panels.Stats(),
		"bus":            h.bus.Stats(),
		"plugins":        h.plugins.Stats(),
	})
}

// ApplyConfig replaces the panel configuration
func (h *Handlers) ApplyConfig(c *gin.Context) {
	var cfg types.PanelConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	if err := h.panels.SetConfig(cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	h.hub.Broadcast(ws.EventConfigApplied, gin.H{
		"panels":    len(cfg.Panels),
		"resources": len(cfg.Resources),
	})
	h.scheduleAutoSave()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"panels":  h.panels.Panels(),
	})
}

// ListPanels returns all panels with their navigation state
func (h *Handlers) ListPanels(c *gin.Context) {
	panelList := h.panels.Panels()
	states := make([]types.NavigationState, 0, len(panelList))
	for _, p := range panelList {
		if state, ok := h.panels.NavigationState(p.ID); ok {
			states = append(states, state)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"panels":  panelList,
		"states":  states,
	})
}

// GetNavigation returns one panel's navigation state
func (h *Handlers) GetNavigation(c *gin.Context) {
	state, ok := h.panels.NavigationState(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "unknown panel: " + c.Param("id"),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"state":   state,
	})
}

// Navigate moves a panel's cursor
func (h *Handlers) Navigate(c *gin.Context) {
	panelID := c.Param("id")

	var req struct {
		Op         string `json:"op" binding:"required"`
		Index      *int   `json:"index"`
		ResourceID string `json:"resource_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	if _, ok := h.panels.NavigationState(panelID); !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "unknown panel: " + panelID,
		})
		return
	}

	switch req.Op {
	case "next":
		h.panels.Next(panelID)
	case "previous":
		h.panels.Previous(panelID)
	case "set_index":
		if req.Index == nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "set_index requires index",
			})
			return
		}
		h.panels.SetCurrentResource(panelID, *req.Index)
	case "set_resource":
		if req.ResourceID == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "set_resource requires resource_id",
			})
			return
		}
		if !h.panels.SetResourceByID(panelID, req.ResourceID) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   "resource not in panel: " + req.ResourceID,
			})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "unknown op: " + req.Op,
		})
		return
	}

	if h.metrics != nil {
		h.metrics.NavigationOps.WithLabelValues(req.Op).Inc()
	}

	state, _ := h.panels.NavigationState(panelID)
	h.hub.Broadcast(ws.EventNavigation, state)
	h.scheduleAutoSave()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"state":   state,
	})
}

// ListResources returns resources grouped by category
func (h *Handlers) ListResources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"categories": h.panels.ResourcesByCategory(),
		"visible":    h.panels.VisibleResources(),
	})
}

// GetResource returns one resource
func (h *Handlers) GetResource(c *gin.Context) {
	resource, ok := h.panels.Resource(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "unknown resource: " + c.Param("id"),
		})
		return
	}
	panelID, _ := h.panels.PanelFor(resource.ID)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"resource": resource,
		"panel_id": panelID,
	})
}

// Send publishes a message onto the bus
func (h *Handlers) Send(c *gin.Context) {
	var req struct {
		Content   types.Content `json:"content" binding:"required"`
		From      string        `json:"from" binding:"required"`
		To        *string       `json:"to"`
		Lifecycle string        `json:"lifecycle"`
		StateKey  string        `json:"state_key"`
		TTLMs     int64         `json:"ttl_ms"`
		ChainID   string        `json:"chain_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	msg, err := h.bus.Send(req.Content, req.From, req.To, &bus.SendOptions{
		Lifecycle: types.Lifecycle(req.Lifecycle),
		StateKey:  req.StateKey,
		TTLMillis: req.TTLMs,
		ChainID:   req.ChainID,
	})
	if err != nil {
		var validation *bus.ValidationError
		var routing *bus.RoutingError
		switch {
		case errors.As(err, &validation):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   validation.Error(),
			})
		case errors.As(err, &routing):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   routing.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   err.Error(),
			})
		}
		return
	}

	h.hub.Broadcast(ws.EventMessage, gin.H{
		"message_id": msg.ID,
		"scope":      msg.Scope(),
		"lifecycle":  msg.Lifecycle,
		"type":       msg.Content.Type,
	})
	h.scheduleAutoSave()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": msg,
	})
}

// Messages returns a resource's visible messages
func (h *Handlers) Messages(c *gin.Context) {
	resourceID := c.Param("id")
	if _, ok := h.panels.Resource(resourceID); !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "unknown resource: " + resourceID,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"messages": h.bus.Messages(resourceID),
	})
}

// CurrentState returns a resource's effective state for one key
func (h *Handlers) CurrentState(c *gin.Context) {
	msg, ok := h.bus.CurrentState(c.Param("id"), c.Param("key"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "no state for key: " + c.Param("key"),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": msg,
	})
}

// Consume marks a message consumed for a resource
func (h *Handlers) Consume(c *gin.Context) {
	var req struct {
		ResourceID string `json:"resource_id" binding:"required"`
		Lifecycle  string `json:"lifecycle" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	messageID := c.Param("id")
	switch types.Lifecycle(req.Lifecycle) {
	case types.LifecycleEvent:
		h.bus.ConsumeEvent(req.ResourceID, messageID)
	case types.LifecycleCommand:
		h.bus.ConsumeCommand(req.ResourceID, messageID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "state messages are superseded, not consumed",
		})
		return
	}

	h.scheduleAutoSave()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ClearState removes a state entry
func (h *Handlers) ClearState(c *gin.Context) {
	var req struct {
		ResourceID string `json:"resource_id" binding:"required"`
		StateKey   string `json:"state_key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	h.bus.ClearState(req.ResourceID, req.StateKey)
	h.hub.Broadcast(ws.EventStateCleared, gin.H{
		"resource_id": req.ResourceID,
		"state_key":   req.StateKey,
	})
	h.scheduleAutoSave()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ClearMessages drops everything scoped to one resource
func (h *Handlers) ClearMessages(c *gin.Context) {
	h.bus.ClearMessages(c.Param("id"))
	h.scheduleAutoSave()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Sweep removes expired events and consumed commands
func (h *Handlers) Sweep(c *gin.Context) {
	removed := h.bus.Sweep()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"removed": removed,
	})
}

// ListPlugins returns registered plugin names and stats
func (h *Handlers) ListPlugins(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"plugins": h.plugins.List(),
		"stats":   h.plugins.Stats(),
	})
}

// SaveState snapshots navigation and messages immediately
func (h *Handlers) SaveState(c *gin.Context) {
	ok := h.persist.SaveState(c.Request.Context(), h.panels.Navigation(), h.bus.Export())
	status := http.StatusOK
	if !ok {
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"success": ok})
}

// RestoreState rehydrates navigation and messages from the snapshot
func (h *Handlers) RestoreState(c *gin.Context) {
	snapshot := h.persist.LoadState(c.Request.Context())
	if snapshot == nil {
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"restored": false,
		})
		return
	}

	h.panels.RestoreNavigation(snapshot.PanelNavigation)
	h.bus.Restore(snapshot.ResourceMessages)

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"restored": true,
		"saved_at": snapshot.SavedAt,
	})
}

// ClearPersisted removes the stored snapshot
func (h *Handlers) ClearPersisted(c *gin.Context) {
	ok := h.persist.ClearState(c.Request.Context())
	status := http.StatusOK
	if !ok {
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"success": ok})
}

// PersistenceInfo describes the stored snapshot
func (h *Handlers) PersistenceInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"info":    h.persist.StorageInfo(c.Request.Context()),
	})
}

func (h *Handlers) scheduleAutoSave() {
	h.persist.ScheduleAutoSave(h.panels.Navigation(), h.bus.Export())
}
