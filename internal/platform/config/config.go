package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Cfg 是一个全局变量，用于存储所有应用程序的配置
var Cfg *Config

// Config 结构体定义了应用程序的所有配置项
// 它与 config.yaml 文件的结构完全对应
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Raffle   RaffleConfig   `mapstructure:"raffle"`
	Oracle   OracleConfig   `mapstructure:"oracle"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig 定义了服务器相关的配置
type ServerConfig struct {
	Mode    string     `mapstructure:"mode"`
	Address string     `mapstructure:"address"`
	Cors    CorsConfig `mapstructure:"cors"`
	// AuthorityKey 是管理接口的准入密钥，对应原部署中的authority签名者
	AuthorityKey string `mapstructure:"authorityKey"`
}

// CorsConfig 定义了CORS相关的配置
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// DatabaseConfig 定义了数据库和缓存相关的配置
type DatabaseConfig struct {
	Redis  RedisConfig  `mapstructure:"redis"`
	Sqlite SqliteConfig `mapstructure:"sqlite"`
}

// RedisConfig 定义了Redis的配置
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SqliteConfig 定义了SQLite的配置
type SqliteConfig struct {
	Path string `mapstructure:"path"`
}

// RaffleConfig 定义了抽奖经济模型的全部参数。
// 历史部署中这些数值存在多个变体，因此全部作为配置而非硬编码常量。
type RaffleConfig struct {
	// TicketPrice 是单张奖券的固定价格（最小货币单位）
	TicketPrice uint64 `mapstructure:"ticketPrice"`
	// TicketFee 是每张奖券划给费用金库的固定协议费
	TicketFee uint64 `mapstructure:"ticketFee"`
	// SuperRaffleFee 是每张奖券划给超级抽奖金库的固定协议费
	SuperRaffleFee uint64 `mapstructure:"superRaffleFee"`
	// NewRaffleCost 是结算时为创建下一轮预留的固定成本
	NewRaffleCost uint64 `mapstructure:"newRaffleCost"`
	// MaxTicketsPerUser 是单轮中每个参与者可购买的奖券上限
	MaxTicketsPerUser uint8 `mapstructure:"maxTicketsPerUser"`
	// PointsPerTicket 是每张奖券的基础积分
	PointsPerTicket uint32 `mapstructure:"pointsPerTicket"`
	// PointsForSelling 是卖家在本轮售出奖品后获得的基础积分
	PointsForSelling uint32 `mapstructure:"pointsForSelling"`
	// DefaultRoyaltyBps 是奖品资产未提供版税信息时的兜底版税率（基点）
	DefaultRoyaltyBps uint16 `mapstructure:"defaultRoyaltyBps"`
	// MinReserve 是任何资金账户必须保留的最小余额，对应原实现的免租门槛
	MinReserve uint64 `mapstructure:"minReserve"`
	// FeeVault 是协议费接收账户的地址
	FeeVault string `mapstructure:"feeVault"`
	// SuperRaffleVault 是超级抽奖费接收账户的地址
	SuperRaffleVault string `mapstructure:"superRaffleVault"`
	// Collection 是允许作为奖品的资产集合标识，为空时不校验集合
	Collection string `mapstructure:"collection"`
}

// OracleConfig 定义了熵源（价格预言机）的配置
type OracleConfig struct {
	// PriceFeedKey 是外部进程发布价格的Redis键
	PriceFeedKey string `mapstructure:"priceFeedKey"`
	// StalenessThresholdSeconds 是价格数据允许的最大滞后秒数
	StalenessThresholdSeconds int64 `mapstructure:"stalenessThresholdSeconds"`
}

// LogConfig 定义了日志输出的配置
type LogConfig struct {
	Level   string `mapstructure:"level"`
	File    string `mapstructure:"file"`
	Console bool   `mapstructure:"console"`
}

// LoadConfig 函数负责查找、加载和解析配置文件
// 它会在指定的路径中查找名为 config.yaml 的文件
func LoadConfig() (*Config, error) {
	// 允许通过 .env 注入环境变量（文件不存在时静默忽略）
	_ = godotenv.Load()

	v := viper.New()

	// 1. 设置配置文件名和类型
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// 2. 添加配置文件搜索路径
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	// 3. 设置环境变量支持
	// 允许通过环境变量覆盖配置，例如 SERVER_ADDRESS=:9090
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. 提供与历史部署一致的默认经济参数
	setDefaults(v)

	// 5. 读取配置文件（缺失时退回默认值）
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// 6. 将配置反序列化到结构体中
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// 7. 将加载的配置赋值给全局变量
	Cfg = &cfg

	return Cfg, nil
}

// setDefaults 写入所有配置项的默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.cors.allowedOrigins", []string{"http://localhost:3000"})
	v.SetDefault("server.authorityKey", "")

	v.SetDefault("database.redis.address", "localhost:6379")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)
	v.SetDefault("database.sqlite.path", "raffle.db")

	v.SetDefault("raffle.ticketPrice", uint64(660_000_000))
	v.SetDefault("raffle.ticketFee", uint64(20_000_000))
	v.SetDefault("raffle.superRaffleFee", uint64(10_000_000))
	v.SetDefault("raffle.newRaffleCost", uint64(1_500_000))
	v.SetDefault("raffle.maxTicketsPerUser", uint8(50))
	v.SetDefault("raffle.pointsPerTicket", uint32(1))
	v.SetDefault("raffle.pointsForSelling", uint32(10))
	v.SetDefault("raffle.defaultRoyaltyBps", uint16(500))
	v.SetDefault("raffle.minReserve", uint64(1_120_560))
	v.SetDefault("raffle.feeVault", "vault:fee")
	v.SetDefault("raffle.superRaffleVault", "vault:super")
	v.SetDefault("raffle.collection", "")

	v.SetDefault("oracle.priceFeedKey", "oracle:sol_price")
	v.SetDefault("oracle.stalenessThresholdSeconds", int64(60))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.console", true)
}
