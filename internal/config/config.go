package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LLM 提供方
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// 定位提供方
const (
	GeoNone   = "none"
	GeoStatic = "static"
	GeoIP     = "ip"
)

// Config 项目配置结构体
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Search      SearchConfig      `yaml:"search"`
	Geo         GeoConfig         `yaml:"geo"`
	Batch       BatchConfig       `yaml:"batch"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Log         LogConfig         `yaml:"log"`
	DB          DBConfig          `yaml:"db"`
	Server      ServerConfig      `yaml:"server"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // gemini | openai
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
}

// SearchConfig 搜索相关配置，仅 openai 兼容后端使用
type SearchConfig struct {
	Provider string        `yaml:"provider"`
	Tavily   TavilyConfig  `yaml:"tavily"`
	SearXNG  SearXNGConfig `yaml:"searxng"`
}

// TavilyConfig Tavily 配置
type TavilyConfig struct {
	APIKey string `yaml:"api_key"`
}

// SearXNGConfig SearXNG 配置
type SearXNGConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"`
}

// GeoConfig 请求位置偏置
type GeoConfig struct {
	Provider  string        `yaml:"provider"` // none | static | ip
	Latitude  float64       `yaml:"latitude"`
	Longitude float64       `yaml:"longitude"`
	Endpoint  string        `yaml:"endpoint"`
	Timeout   time.Duration `yaml:"timeout"`
}

// BatchConfig 批处理配置
type BatchConfig struct {
	Pacing time.Duration `yaml:"pacing"`
}

// ConcurrencyConfig 并发控制配置
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	RPM int `yaml:"rpm"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DBConfig 数据库相关配置，Host 为空时不持久化
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr    string        `yaml:"addr"`
	Timeout time.Duration `yaml:"timeout"`
	JobTTL  time.Duration `yaml:"job_ttl"`
	JWTKey  string        `yaml:"jwt_key"` // 非空时 /api/v1 需要 Bearer 令牌
}

// DSN 返回 lib/pq 连接串
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}

// LoadConfig 从指定路径加载配置。
// 同目录或工作目录下的 .env 会先被加载，GEMINI_API_KEY / LLM_API_KEY 覆盖配置文件中的 api_key。
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse 解析 yaml 内容并应用环境变量和默认值
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && (c.LLM.Provider == "" || c.LLM.Provider == ProviderGemini) {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("TAVILY_API_KEY"); v != "" {
		c.Search.Tavily.APIKey = v
	}
	if v := os.Getenv("JWT_KEY"); v != "" {
		c.Server.JWTKey = v
	}
}

func (c *Config) applyDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderGemini
	}
	if c.LLM.Model == "" && c.LLM.Provider == ProviderGemini {
		c.LLM.Model = "gemini-2.5-flash"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.4
	}
	if c.Geo.Provider == "" {
		c.Geo.Provider = GeoNone
	}
	if c.Geo.Timeout == 0 {
		c.Geo.Timeout = 5 * time.Second
	}
	if c.Batch.Pacing < time.Second {
		c.Batch.Pacing = time.Second
	}
	if c.Concurrency.QPS <= 0 {
		c.Concurrency.QPS = 1
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 5432
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 120 * time.Second
	}
	if c.Server.JobTTL == 0 {
		c.Server.JobTTL = 24 * time.Hour
	}
}

// Validate 检查配置是否可用
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGemini:
	case ProviderOpenAI:
		if c.LLM.Model == "" {
			return fmt.Errorf("llm.model is required for provider %s", c.LLM.Provider)
		}
	default:
		return fmt.Errorf("unknown llm provider: %s", c.LLM.Provider)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm api key is missing")
	}
	switch c.Geo.Provider {
	case GeoNone, GeoStatic:
	case GeoIP:
		if c.Geo.Endpoint == "" {
			return fmt.Errorf("geo.endpoint is required for provider %s", GeoIP)
		}
	default:
		return fmt.Errorf("unknown geo provider: %s", c.Geo.Provider)
	}
	return nil
}
