package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"parking-service/internal/config"
	"parking-service/internal/domain/parking"
	"parking-service/internal/service"
)

type Handler struct {
	sessions  *service.SessionService
	pairing   *service.PairingService
	occupancy *service.OccupancyService
	slots     *service.SlotService
	config    *config.Config
	log       zerolog.Logger
}

func NewHandler(
	sessions *service.SessionService,
	pairing *service.PairingService,
	occupancy *service.OccupancyService,
	slots *service.SlotService,
	cfg *config.Config,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		sessions:  sessions,
		pairing:   pairing,
		occupancy: occupancy,
		slots:     slots,
		config:    cfg,
		log:       log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	r.GET("/health", h.health)
	r.POST("/auth/login", h.login)

	// Gate devices and the processing pipeline
	public := r.Group("/api/v1")
	{
		public.POST("/sessions", h.createSession)
		public.GET("/sessions", h.listSessions)
		public.GET("/sessions/:id", h.getSession)
		public.POST("/sessions/:id/finalize", h.finalizeExit)
		public.PATCH("/sessions/:id/plate", h.updatePlateNumber)
		public.POST("/matching-verify", h.recordVerification)
		public.GET("/plates/:plate/session", h.sessionByPlate)
	}

	// Dashboard reads
	dashboard := r.Group("/api/v1")
	{
		dashboard.GET("/pairs", h.verifiedPairs)
		dashboard.GET("/grouped-sessions", h.groupedSessions)
		dashboard.GET("/vehicles/current", h.currentVehicles)
		dashboard.GET("/parking/slots", h.slotCounts)
		dashboard.GET("/parking/stats", h.dashboardStats)
	}

	// Admin mutations
	protected := r.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.PUT("/parking/slots/total", h.updateTotalSlots)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type createSessionRequest struct {
	Gate          string  `json:"gate" binding:"required"`
	PlateImageRef string  `json:"plateImageRef" binding:"required"`
	FaceImageRef  string  `json:"faceImageRef" binding:"required"`
	FaceIndex     string  `json:"faceIndex"`
	PlateNumber   *string `json:"plateNumber"`
}

func (h *Handler) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	session, err := h.sessions.CreateSession(c.Request.Context(), service.CreateSessionInput{
		Gate:          parking.Gate(req.Gate),
		PlateImageRef: req.PlateImageRef,
		FaceImageRef:  req.FaceImageRef,
		FaceIndex:     req.FaceIndex,
		PlateNumber:   req.PlateNumber,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"session_id": session.ID,
		"gate":       session.Gate,
	})
}

func (h *Handler) getSession(c *gin.Context) {
	session, err := h.sessions.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(session))
}

func (h *Handler) listSessions(c *gin.Context) {
	gate := strings.TrimSpace(c.Query("gate"))
	if gate == "" {
		c.JSON(http.StatusBadRequest, errorResponse("gate parameter is required"))
		return
	}

	limit := 100
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	sessions, err := h.sessions.SessionsByGate(c.Request.Context(), parking.Gate(gate), limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(sessions))
}

func (h *Handler) finalizeExit(c *gin.Context) {
	result, err := h.sessions.FinalizeExit(c.Request.Context(), c.Param("id"))
	if err != nil {
		// Unpaired or unverified exits are expected outcomes, not
		// faults; the caller gets a structured "not finalized" answer.
		if errors.Is(err, service.ErrNoMatch) || errors.Is(err, service.ErrUnverified) {
			c.JSON(http.StatusOK, gin.H{
				"success": false,
				"message": err.Error(),
			})
			return
		}
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":               true,
		"entry_session_id":      result.EntrySessionID,
		"exit_session_id":       result.ExitSessionID,
		"session_map_id":        result.SessionMapID,
		"current_vehicle_count": result.CurrentVehicleCount,
	})
}

type updatePlateRequest struct {
	PlateNumber string `json:"plateNumber" binding:"required"`
}

func (h *Handler) updatePlateNumber(c *gin.Context) {
	var req updatePlateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	if err := h.sessions.UpdatePlateNumber(c.Request.Context(), c.Param("id"), req.PlateNumber); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session_id": c.Param("id")})
}

type matchingVerifyRequest struct {
	SessionID string `json:"sessionID" binding:"required"`
	IsMatch   *bool  `json:"isMatch" binding:"required"`
}

func (h *Handler) recordVerification(c *gin.Context) {
	var req matchingVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	id, err := h.sessions.RecordVerification(c.Request.Context(), req.SessionID, *req.IsMatch)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"result_id":  id,
		"session_id": req.SessionID,
		"is_match":   *req.IsMatch,
	})
}

func (h *Handler) sessionByPlate(c *gin.Context) {
	session, err := h.sessions.SessionByPlate(c.Request.Context(), c.Param("plate"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"plate_number": c.Param("plate"),
		"session":      session,
	})
}

func (h *Handler) verifiedPairs(c *gin.Context) {
	pairs, err := h.pairing.VerifiedPairs(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(pairs))
}

func (h *Handler) groupedSessions(c *gin.Context) {
	grouped, err := h.occupancy.GroupedSessions(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(grouped))
}

func (h *Handler) currentVehicles(c *gin.Context) {
	occ, err := h.occupancy.CurrentVehicles(c.Request.Context())
	if err != nil {
		// Aggregate dashboard reads degrade to an empty lot instead of
		// propagating a fault to the UI.
		h.log.Error().Err(err).Msg("failed to compute current vehicles")
		c.JSON(http.StatusOK, successResponse(parking.Occupancy{Vehicles: []parking.Vehicle{}}))
		return
	}
	c.JSON(http.StatusOK, successResponse(occ))
}

func (h *Handler) slotCounts(c *gin.Context) {
	total, err := h.slots.TotalSlots(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to read total slots")
		c.JSON(http.StatusOK, successResponse(parking.SlotCounter{}))
		return
	}

	available, err := h.slots.AvailableSlots(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to compute available slots")
		available = total
	}

	c.JSON(http.StatusOK, successResponse(parking.SlotCounter{
		Total:     total,
		Available: available,
	}))
}

func (h *Handler) dashboardStats(c *gin.Context) {
	c.JSON(http.StatusOK, successResponse(h.sessions.DashboardStats(c.Request.Context())))
}

type updateTotalSlotsRequest struct {
	Total *int `json:"total" binding:"required"`
}

func (h *Handler) updateTotalSlots(c *gin.Context) {
	var req updateTotalSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	available, err := h.slots.UpdateTotalSlots(c.Request.Context(), *req.Total)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"total":     *req.Total,
		"available": available,
	})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidState):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrMissingEvidence):
		c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
	case errors.Is(err, service.ErrStorage):
		h.log.Error().Err(err).Msg("storage failure")
		c.JSON(http.StatusServiceUnavailable, errorResponse("storage unavailable"))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
