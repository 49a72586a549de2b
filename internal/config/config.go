package config

import (
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// Config ehs-data（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string
	}
	Database DatabaseConfig
	Redis    struct {
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}

	// Exposure 暴露计算引擎参数
	Exposure ExposureConfig

	// LIMS 实验室信息系统（采样分析结果下载）配置
	LIMS LIMSConfig
}

// ExposureConfig 暴露计算引擎参数
type ExposureConfig struct {
	NearMissPercent   float64 // near-miss 阈值（占限值百分比），默认 80
	LimitCacheTTLSecs int     // 限值解析缓存 TTL（秒），0 表示不缓存
}

// LIMSConfig 实验室 LIMS 服务配置
type LIMSConfig struct {
	HttpAddress string // LIMS 服务地址
	APIKey      string // API Key
	Timezone    int    // 时区偏移（秒）
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "ehsdata")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "20"), 20)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	// 暴露引擎参数：near-miss 阈值默认 80%
	cfg.Exposure.NearMissPercent = parseFloat(getEnv("EXPOSURE_NEAR_MISS_PERCENT", "80"), 80)
	cfg.Exposure.LimitCacheTTLSecs = parseInt(getEnv("EXPOSURE_LIMIT_CACHE_TTL", "300"), 300)

	// LIMS 配置（留空则禁用实验室结果下载）
	cfg.LIMS.HttpAddress = getEnv("LIMS_HTTP_ADDRESS", "")
	cfg.LIMS.APIKey = getEnv("LIMS_API_KEY", "")
	cfg.LIMS.Timezone = parseInt(getEnv("LIMS_TIMEZONE", "0"), 0)

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseFloat(s string, def float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}
