// Package config 提供 TOML 配置加载与环境变量覆盖
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 基础配置结构
type Config struct {
	// 服务名称
	ServiceName string `mapstructure:"service_name"`
	// 服务版本
	Version string `mapstructure:"version"`
	// 环境：dev, staging, prod
	Environment string `mapstructure:"environment"`
	// HTTP 服务配置
	HTTP HTTPConfig `mapstructure:"http"`
	// 日志配置
	Logger LoggerConfig `mapstructure:"logger"`
	// 定价引擎配置
	Engine EngineConfig `mapstructure:"engine"`
	// 风险引擎配置
	Risk RiskConfig `mapstructure:"risk"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	// 监听地址
	Host string `mapstructure:"host"`
	// 监听端口
	Port int `mapstructure:"port"`
	// 读超时（秒）
	ReadTimeout int `mapstructure:"read_timeout"`
	// 写超时（秒）
	WriteTimeout int `mapstructure:"write_timeout"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	// 日志级别
	Level string `mapstructure:"level"`
}

// EngineConfig 定价引擎默认参数
type EngineConfig struct {
	// 到期时间下限（年）
	ExpiryEpsilon float64 `mapstructure:"expiry_epsilon"`
	// 二叉树默认步数
	BinomialSteps int `mapstructure:"binomial_steps"`
	// 蒙特卡洛默认路径数
	MonteCarloSamples int `mapstructure:"monte_carlo_samples"`
	// 蒙特卡洛默认并行度
	MonteCarloWorkers int `mapstructure:"monte_carlo_workers"`
}

// RiskConfig 风险引擎默认参数
type RiskConfig struct {
	// VaR 模拟次数
	VaRSimulations int `mapstructure:"var_simulations"`
	// VaR 持有期（年）
	VaRHorizon float64 `mapstructure:"var_horizon"`
	// VaR 置信度
	VaRConfidence float64 `mapstructure:"var_confidence"`
	// 基础保证金比例
	MarginBaseRate float64 `mapstructure:"margin_base_rate"`
	// 波动率加成系数
	MarginVolMultiplier float64 `mapstructure:"margin_vol_multiplier"`
	// VaR 置信度放大系数
	ConfidenceMultiplier float64 `mapstructure:"confidence_multiplier"`
}

// Load 从 TOML 文件加载配置，支持 APP_ 前缀环境变量覆盖
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 30)
	v.SetDefault("logger.level", "info")
	v.SetDefault("engine.expiry_epsilon", 1e-8)
	v.SetDefault("engine.binomial_steps", 200)
	v.SetDefault("engine.monte_carlo_samples", 100000)
	v.SetDefault("engine.monte_carlo_workers", 4)
	v.SetDefault("risk.var_simulations", 10000)
	v.SetDefault("risk.var_horizon", 1.0/252)
	v.SetDefault("risk.var_confidence", 0.95)
	v.SetDefault("risk.margin_base_rate", 0.05)
	v.SetDefault("risk.margin_vol_multiplier", 2.0)
	v.SetDefault("risk.confidence_multiplier", 1.41)
}

// Validate 配置校验
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port: %d", c.HTTP.Port)
	}
	if c.Engine.ExpiryEpsilon <= 0 {
		return fmt.Errorf("engine.expiry_epsilon must be positive")
	}
	if c.Risk.VaRConfidence <= 0 || c.Risk.VaRConfidence >= 1 {
		return fmt.Errorf("risk.var_confidence must be in (0, 1)")
	}
	return nil
}
