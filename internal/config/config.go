package config

import (
	"strings"
	"time"

	"github.com/blues/antugrow/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Provider ProviderConfig `mapstructure:"provider"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres 或 sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"` // sqlite 文件路径
}

// ChainConfig 链配置
type ChainConfig struct {
	ChainType     string                    `mapstructure:"chain_type"`    // 链类型 (ethereum, scroll, etc.)
	ChainId       int64                     `mapstructure:"chain_id"`      // 链ID
	RpcUrl        string                    `mapstructure:"rpc_url"`       // RPC节点URL
	PrivateKey    string                    `mapstructure:"private_key"`   // 签名私钥
	Confirmations uint64                    `mapstructure:"confirmations"` // 交易确认块数
	PollInterval  time.Duration             `mapstructure:"poll_interval"` // 回执轮询间隔
	BatchSize     int                       `mapstructure:"batch_size"`    // 批量读取并发数
	Contracts     map[string]ContractConfig `mapstructure:"contracts"`     // factory / token / funding
}

// ContractConfig 单个合约配置
type ContractConfig struct {
	Address string `mapstructure:"address"`  // 合约地址
	ABIPath string `mapstructure:"abi_path"` // ABI文件路径，为空时使用内置ABI
	Enabled bool   `mapstructure:"enabled"`  // 是否启用此合约
}

// ProviderConfig 天气/卫星/价格数据服务
type ProviderConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// OpenAIConfig 大模型配置
type OpenAIConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	Model           string        `mapstructure:"model"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type TaskConfig struct {
	FundingInterval int `mapstructure:"funding_interval"` // 秒
	WeatherInterval int `mapstructure:"weather_interval"` // 秒
	WeatherWorkers  int `mapstructure:"weather_workers"`  // 同时采集天气的农场数
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

// SetDefaults 设置默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "antugrow")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "data/antugrow.db")
	v.SetDefault("chain.chain_type", "scroll")
	v.SetDefault("chain.chain_id", 534351)
	v.SetDefault("chain.rpc_url", "https://sepolia-rpc.scroll.io")
	v.SetDefault("chain.private_key", "")
	v.SetDefault("chain.confirmations", 1)
	v.SetDefault("chain.poll_interval", 2*time.Second)
	v.SetDefault("chain.batch_size", 8)
	v.SetDefault("provider.base_url", "http://localhost:5000")
	v.SetDefault("provider.timeout", 30*time.Second)
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("openai.max_output_tokens", 1000)
	v.SetDefault("openai.timeout", 60*time.Second)
	v.SetDefault("task.funding_interval", 60)
	v.SetDefault("task.weather_interval", 3600)
	v.SetDefault("task.weather_workers", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/app.log")
}

// Load 加载配置：.env -> 默认值 -> 配置文件 -> 环境变量
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found (using environment variables)")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/antugrow")

	SetDefaults(v)

	// 自动读取环境变量，例如 CHAIN_PRIVATE_KEY、OPENAI_API_KEY
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		logger.Warn("Could not read config file: %v", err)
	}

	cfg, err := Decode(v)
	if err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}
	return cfg
}

// Decode 将 viper 中的配置解码为 Config
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
