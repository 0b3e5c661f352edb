package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	pricing "github.com/wyfcoding/derivativespricing/internal/pricing/domain"
	"github.com/wyfcoding/derivativespricing/internal/risk/application"
	"github.com/wyfcoding/derivativespricing/internal/risk/domain"
)

// HTTP 处理器
// 负责处理组合风险与保证金相关的 HTTP 请求
type RiskHandler struct {
	app *application.RiskService
}

func NewRiskHandler(app *application.RiskService) *RiskHandler {
	return &RiskHandler{app: app}
}

// 注册路由
func (h *RiskHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/risk")
	{
		api.POST("/portfolio", h.AggregatePortfolio)
		api.POST("/strategy/validate", h.ValidateStrategy)
		api.POST("/var", h.SimulateVaR)
		api.POST("/margin", h.CalculateMargin)
	}
}

type legRequest struct {
	ContractID   string  `json:"contract_id" binding:"required"`
	Underlying   string  `json:"underlying" binding:"required"`
	Quantity     float64 `json:"quantity" binding:"required"`
	ContractSize float64 `json:"contract_size"`
	ExpiryDate   string  `json:"expiry_date"`

	SpotPrice    float64 `json:"spot_price" binding:"required"`
	StrikePrice  float64 `json:"strike_price" binding:"required"`
	TimeToExpiry float64 `json:"time_to_expiry"`
	RiskFreeRate float64 `json:"risk_free_rate"`
	Volatility   float64 `json:"volatility" binding:"required"`
	OptionType   string  `json:"option_type" binding:"required"`
}

func (r legRequest) toDomain() (domain.PositionLeg, error) {
	size := r.ContractSize
	if size == 0 {
		size = 1
	}
	var expiry time.Time
	if r.ExpiryDate != "" {
		var err error
		expiry, err = time.Parse(time.RFC3339, r.ExpiryDate)
		if err != nil {
			return domain.PositionLeg{}, fmt.Errorf("leg %s: invalid expiry_date %q: %w", r.ContractID, r.ExpiryDate, err)
		}
	}
	return domain.PositionLeg{
		Position: domain.Position{
			ContractID: r.ContractID,
			Quantity:   decimal.NewFromFloat(r.Quantity),
		},
		Contract: domain.OptionContract{
			Symbol:       r.ContractID,
			Underlying:   r.Underlying,
			StrikePrice:  decimal.NewFromFloat(r.StrikePrice),
			ExpiryDate:   expiry,
			ContractSize: decimal.NewFromFloat(size),
			Type:         pricing.OptionType(r.OptionType),
		},
		Input: pricing.PricingInput{
			SpotPrice:    r.SpotPrice,
			StrikePrice:  r.StrikePrice,
			TimeToExpiry: r.TimeToExpiry,
			RiskFreeRate: r.RiskFreeRate,
			Volatility:   r.Volatility,
			OptionType:   pricing.OptionType(r.OptionType),
		},
	}, nil
}

func toDomainLegs(reqs []legRequest) ([]domain.PositionLeg, error) {
	legs := make([]domain.PositionLeg, len(reqs))
	for i, r := range reqs {
		leg, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		legs[i] = leg
	}
	return legs, nil
}

type portfolioRequest struct {
	Legs []legRequest `json:"legs" binding:"required"`
}

// AggregatePortfolio 组合风险快照
func (h *RiskHandler) AggregatePortfolio(c *gin.Context) {
	var req portfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	legs, err := toDomainLegs(req.Legs)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	snapshot, err := h.app.AggregatePortfolio(c.Request.Context(), legs)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	response.Success(c, snapshot)
}

type validateStrategyRequest struct {
	StrategyID string       `json:"strategy_id" binding:"required"`
	Underlying string       `json:"underlying"`
	Legs       []legRequest `json:"legs" binding:"required"`
	MaxDelta   float64      `json:"max_delta"`
	MaxVega    float64      `json:"max_vega"`
}

// ValidateStrategy 策略准入校验
// 突破上限时返回 403，响应体携带错误信息
func (h *RiskHandler) ValidateStrategy(c *gin.Context) {
	var req validateStrategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	legs, err := toDomainLegs(req.Legs)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	strategy := &domain.Strategy{
		StrategyID: req.StrategyID,
		Underlying: req.Underlying,
		Legs:       legs,
		RiskLimits: domain.RiskLimits{MaxDelta: req.MaxDelta, MaxVega: req.MaxVega},
	}

	snapshot, err := h.app.ValidateStrategy(c.Request.Context(), strategy)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	response.Success(c, snapshot)
}

type varRequest struct {
	Legs         []legRequest `json:"legs" binding:"required"`
	Simulations  int          `json:"simulations"`
	Horizon      float64      `json:"horizon"`
	Confidence   float64      `json:"confidence"`
	Correlations [][]float64  `json:"correlations"`
	Seed         uint64       `json:"seed"`
}

// SimulateVaR VaR 模拟
func (h *RiskHandler) SimulateVaR(c *gin.Context) {
	var req varRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	legs, err := toDomainLegs(req.Legs)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	result, err := h.app.SimulateVaR(c.Request.Context(), legs, domain.VaRConfig{
		Simulations:  req.Simulations,
		Horizon:      req.Horizon,
		Confidence:   req.Confidence,
		Correlations: req.Correlations,
		Seed:         req.Seed,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	response.Success(c, result)
}

type marginRequest struct {
	Methodology string       `json:"methodology" binding:"required"`
	Legs        []legRequest `json:"legs" binding:"required"`
}

// CalculateMargin 保证金计算
func (h *RiskHandler) CalculateMargin(c *gin.Context) {
	var req marginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	legs, err := toDomainLegs(req.Legs)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	requirement, err := h.app.CalculateMargin(c.Request.Context(), req.Methodology, legs)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	response.Success(c, requirement)
}

// respondDomainError 将领域错误映射为 HTTP 状态码
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pricing.ErrInvalidInput), errors.Is(err, domain.ErrInvalidMethodology):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, domain.ErrRiskLimitExceeded):
		response.ErrorWithStatus(c, http.StatusForbidden, err.Error(), "")
	case errors.Is(err, pricing.ErrNumericalInstability):
		response.ErrorWithStatus(c, http.StatusUnprocessableEntity, err.Error(), "")
	default:
		logging.Error(c.Request.Context(), "risk request failed", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
	}
}
