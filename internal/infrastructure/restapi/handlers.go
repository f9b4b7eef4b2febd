package restapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nav_checker/internal/app/service"
	"nav_checker/internal/domain/entity"
)

// APIValuationResponse is the envelope of the NAV endpoint.
type APIValuationResponse struct {
	Data struct {
		Valuation *entity.PortfolioValuation `json:"valuation"`
	} `json:"data"`
	StatusMessage string `json:"status_message"`
}

// APIRouteReportResponse is the envelope of the route diagnostics endpoint.
type APIRouteReportResponse struct {
	Data struct {
		Report *entity.RouteReport `json:"report"`
	} `json:"data"`
	Formatted     string `json:"formatted"`
	StatusMessage string `json:"status_message"`
}

// ValuationHandler serves NAV and diagnostics requests.
type ValuationHandler struct {
	runner *service.ValuationRunner
	logger *zap.Logger
}

// NewValuationHandler creates a handler around a runner.
func NewValuationHandler(runner *service.ValuationRunner, logger *zap.Logger) *ValuationHandler {
	return &ValuationHandler{
		runner: runner,
		logger: logger.Named("ValuationHandler"),
	}
}

// GetNAVHandler godoc
// @Summary      Calculate the vault's net asset value
// @Description  Runs a market-sell valuation of every vault position at the latest block.
// @Produce      json
// @Success      200 {object} APIValuationResponse
// @Failure      500 {object} APIValuationResponse
// @Router       /api/v1/nav [get]
func (h *ValuationHandler) GetNAVHandler(c *gin.Context) {
	valuation, err := h.runner.RunValuation(c.Request.Context())
	if err != nil {
		h.logger.Error("NAV calculation failed", zap.Error(err))
		status := http.StatusInternalServerError
		var fatal *entity.FatalValuationError
		if errors.As(err, &fatal) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, APIValuationResponse{StatusMessage: err.Error()})
		return
	}

	response := APIValuationResponse{}
	response.Data.Valuation = valuation
	if unvalued := valuation.UnvaluedTokens(); len(unvalued) > 0 {
		response.StatusMessage = "NAV calculated. Some tokens could not be priced and are excluded from total equity."
	} else {
		response.StatusMessage = "NAV calculated successfully."
	}
	c.JSON(http.StatusOK, response)
}

// GetRouteDiagnosticsHandler godoc
// @Summary      Explain route selection
// @Description  Reruns valuation routing and reports every candidate route with its outcome.
// @Produce      json
// @Success      200 {object} APIRouteReportResponse
// @Failure      500 {object} APIRouteReportResponse
// @Router       /api/v1/routes [get]
func (h *ValuationHandler) GetRouteDiagnosticsHandler(c *gin.Context) {
	report, err := h.runner.RunDiagnostics(c.Request.Context())
	if err != nil {
		h.logger.Error("Route diagnostics failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, APIRouteReportResponse{StatusMessage: err.Error()})
		return
	}

	response := APIRouteReportResponse{
		Formatted:     report.Format(),
		StatusMessage: "Route diagnostics generated successfully.",
	}
	response.Data.Report = report
	c.JSON(http.StatusOK, response)
}
