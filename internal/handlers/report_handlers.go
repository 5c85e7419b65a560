package handlers

import (
	"net/http"
	"strconv"

	"barbershop_backend/internal/services"
	"barbershop_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ReportHandler holds the report service.
type ReportHandler struct {
	reportService services.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: rs}
}

func queryBarberID(c *gin.Context) (*int64, bool) {
	raw := c.Query("barber_id")
	if raw == "" {
		return nil, true
	}
	barberID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || barberID <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid barber_id parameter.", raw))
		return nil, false
	}
	return &barberID, true
}

// FinancialSummary returns revenue, commissions and popular services for a
// date range (?start_date, ?end_date as YYYY-MM-DD).
func (h *ReportHandler) FinancialSummary(c *gin.Context) {
	summary, err := h.reportService.FinancialSummary(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		respondServiceError(c, err, "FinancialSummary: failed to build summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *ReportHandler) BarberEarnings(c *gin.Context) {
	barberID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	earnings, err := h.reportService.BarberEarnings(c.Query("start_date"), c.Query("end_date"), barberID)
	if err != nil {
		respondServiceError(c, err, "BarberEarnings: failed to compute earnings")
		return
	}
	c.JSON(http.StatusOK, earnings)
}

func (h *ReportHandler) DailyRevenue(c *gin.Context) {
	points, err := h.reportService.DailyRevenue(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		respondServiceError(c, err, "DailyRevenue: failed to build series")
		return
	}
	c.JSON(http.StatusOK, points)
}

func (h *ReportHandler) ListAttendance(c *gin.Context) {
	barberID, ok := queryBarberID(c)
	if !ok {
		return
	}
	records, err := h.reportService.ListAttendance(c.Query("start_date"), c.Query("end_date"), barberID)
	if err != nil {
		respondServiceError(c, err, "ListAttendance: failed to list records")
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *ReportHandler) GetAttendance(c *gin.Context) {
	recordID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	record, err := h.reportService.GetAttendance(recordID)
	if err != nil {
		respondServiceError(c, err, "GetAttendance: failed to load record")
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *ReportHandler) DeleteAttendance(c *gin.Context) {
	recordID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.reportService.DeleteAttendance(recordID); err != nil {
		respondServiceError(c, err, "DeleteAttendance: failed to delete record")
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteAttendanceRange wipes the records in a date range (?start_date,
// ?end_date, optional ?barber_id) and reports how many rows went.
func (h *ReportHandler) DeleteAttendanceRange(c *gin.Context) {
	barberID, ok := queryBarberID(c)
	if !ok {
		return
	}
	deleted, err := h.reportService.DeleteAttendanceRange(c.Query("start_date"), c.Query("end_date"), barberID)
	if err != nil {
		respondServiceError(c, err, "DeleteAttendanceRange: failed to delete records")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
