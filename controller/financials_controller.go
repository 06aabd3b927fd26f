package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"financials/model"
	"financials/service"
	"financials/validator"
)

// FinancialsController exposes the two host-facing entry points over HTTP.
// Whatever the dispatcher returns - float or human-readable string - goes
// back as the data scalar; a quote call itself never produces a non-200.
type FinancialsController struct {
	financials *service.FinancialsService
}

func NewFinancialsController(fs *service.FinancialsService) *FinancialsController {
	return &FinancialsController{financials: fs}
}

// RegisterRoutes sets up the quote route group.
func (ctrl *FinancialsController) RegisterRoutes(router *gin.RouterGroup) {
	quoteGroup := router.Group("/quote")
	{
		quoteGroup.GET("/realtime", ctrl.GetRealtime)
		quoteGroup.GET("/historic", ctrl.GetHistoric)
	}
}

// GetRealtime handles realtime quote requests.
// @Summary      Get Realtime Quote Field
// @Description  Fetches one quote field for a ticker from the selected source. Cached per ticker for the realtime TTL.
// @Tags         Quotes
// @Produce      json
// @Param        ticker    query  string  true  "Ticker symbol (e.g. IBM, VOD.L, ETH-EUR)"
// @Param        datacode  query  string  true  "Field code or name (e.g. 21 or LAST_PRICE)"
// @Param        source    query  string  true  "Data source (YAHOO, GOOGLE, FT, COINBASE)"
// @Success      200  {object}  model.Response
// @Failure      400  {object}  model.Response
// @Router       /quote/realtime [get]
func (ctrl *FinancialsController) GetRealtime(c *gin.Context) {
	var req model.RealtimeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(err.Error()))
		return
	}

	if err := validator.RealtimeSchema.Validate(&req); err != nil {
		log.Debug().Interface("issues", err).Msg("realtime request validation failed")
		c.JSON(http.StatusBadRequest, NewErrorResponse("ticker, datacode and source are required"))
		return
	}

	result := ctrl.financials.GetRealtime(req.Ticker, req.Datacode, req.Source)
	c.JSON(http.StatusOK, NewResponse(result, "Fetch Success"))
}

// GetHistoric handles historic quote requests.
// @Summary      Get Historic Quote Field
// @Description  Resolves one OHLCV field for a ticker and date. Series are cached on disk and refreshed when the date falls outside the cached range.
// @Tags         Quotes
// @Produce      json
// @Param        ticker    query  string  true  "Ticker symbol (e.g. IBM)"
// @Param        datacode  query  string  true  "Field code or name (e.g. 90 or CLOSE)"
// @Param        date      query  string  true  "ISO date (e.g. 2017-01-03) or day serial"
// @Param        source    query  string  true  "Data source (YAHOO)"
// @Success      200  {object}  model.Response
// @Failure      400  {object}  model.Response
// @Router       /quote/historic [get]
func (ctrl *FinancialsController) GetHistoric(c *gin.Context) {
	var req model.HistoricRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(err.Error()))
		return
	}

	if err := validator.HistoricSchema.Validate(&req); err != nil {
		log.Debug().Interface("issues", err).Msg("historic request validation failed")
		c.JSON(http.StatusBadRequest, NewErrorResponse("ticker, datacode, date and source are required"))
		return
	}

	result := ctrl.financials.GetHistoric(req.Ticker, req.Datacode, req.Date, req.Source)
	c.JSON(http.StatusOK, NewResponse(result, "Fetch Success"))
}
