package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/derivativespricing/internal/pricing/application"
	"github.com/wyfcoding/derivativespricing/internal/pricing/domain"
)

// HTTP 处理器
// 负责处理期权定价相关的 HTTP 请求
type PricingHandler struct {
	app *application.PricingService
}

func NewPricingHandler(app *application.PricingService) *PricingHandler {
	return &PricingHandler{app: app}
}

// 注册路由
func (h *PricingHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/pricing")
	{
		api.POST("/price", h.PriceOption)
		api.POST("/greeks", h.CalculateGreeks)
		api.POST("/implied-vol", h.ImpliedVolatility)
	}
}

type pricingInputRequest struct {
	SpotPrice    float64 `json:"spot_price" binding:"required"`
	StrikePrice  float64 `json:"strike_price" binding:"required"`
	TimeToExpiry float64 `json:"time_to_expiry"`
	RiskFreeRate float64 `json:"risk_free_rate"`
	Volatility   float64 `json:"volatility" binding:"required"`
	OptionType   string  `json:"option_type" binding:"required"`
}

func (r pricingInputRequest) toDomain() domain.PricingInput {
	return domain.PricingInput{
		SpotPrice:    r.SpotPrice,
		StrikePrice:  r.StrikePrice,
		TimeToExpiry: r.TimeToExpiry,
		RiskFreeRate: r.RiskFreeRate,
		Volatility:   r.Volatility,
		OptionType:   domain.OptionType(r.OptionType),
	}
}

type priceOptionRequest struct {
	Model    string              `json:"model" binding:"required"`
	Input    pricingInputRequest `json:"input" binding:"required"`
	Steps    int                 `json:"steps"`
	American bool                `json:"american"`
	Samples  int                 `json:"samples"`
	Seed     uint64              `json:"seed"`
	Workers  int                 `json:"workers"`
	VolOfVol float64             `json:"vol_of_vol"`
}

// PriceOption 期权定价
func (h *PricingHandler) PriceOption(c *gin.Context) {
	var req priceOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	premium, err := h.app.PriceOption(c.Request.Context(), application.PriceOptionCommand{
		Model: req.Model,
		Input: req.Input.toDomain(),
		Params: domain.ModelParams{
			Steps:    req.Steps,
			American: req.American,
			Samples:  req.Samples,
			Seed:     req.Seed,
			Workers:  req.Workers,
			VolOfVol: req.VolOfVol,
		},
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	response.Success(c, premium)
}

// CalculateGreeks 希腊字母
func (h *PricingHandler) CalculateGreeks(c *gin.Context) {
	var req pricingInputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	greeks, err := h.app.CalculateGreeks(c.Request.Context(), req.toDomain())
	if err != nil {
		respondDomainError(c, err)
		return
	}

	response.Success(c, greeks)
}

type impliedVolRequest struct {
	Input       pricingInputRequest `json:"input" binding:"required"`
	MarketPrice float64             `json:"market_price" binding:"required"`
}

// ImpliedVolatility 隐含波动率
func (h *PricingHandler) ImpliedVolatility(c *gin.Context) {
	var req impliedVolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	vol, err := h.app.ImpliedVolatility(c.Request.Context(), req.Input.toDomain(), req.MarketPrice)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	response.Success(c, gin.H{"implied_volatility": vol})
}

// respondDomainError 将领域错误映射为 HTTP 状态码
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, domain.ErrNumericalInstability):
		response.ErrorWithStatus(c, http.StatusUnprocessableEntity, err.Error(), "")
	default:
		logging.Error(c.Request.Context(), "pricing request failed", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
	}
}
