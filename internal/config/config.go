package config

import (
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Planner  PlannerConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled        bool
	RedisURL       string
	RedisHost      string
	RedisPort      string
	RedisPassword  string
	RedisDB        int
	PlanTTLSeconds int
}

// PlannerConfig holds the redistribution planner parameters. The confidence
// weights are empirical and kept configurable rather than baked into the code.
type PlannerConfig struct {
	ForecastHorizonDays    int
	ClusterRadiusMeters    float64
	ClusterMinSamples      int
	MinForecastDataPoints  int
	MinTransferSuggestions int
	ImbalanceThreshold     float64
	ConfidenceThreshold    float64
	MaxTrucksToUse         int

	ForecastWeight    float64
	NeedWeight        float64
	SurplusWeight     float64
	FitWeight         float64
	MinConfidence     float64
	BalanceConfidence float64
	ForcedConfidence  float64

	RunTimeout        time.Duration
	MaxConcurrentRuns int
	SolveBudget       time.Duration
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 120)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "supply_chain_user")
		viper.SetDefault("DB_PASSWORD", "supply_chain_password")
		viper.SetDefault("DB_NAME", "supply_chain_db")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_PLAN_TTL_SECONDS", 300)

		viper.SetDefault("PLANNER_FORECAST_HORIZON_DAYS", 30)
		viper.SetDefault("PLANNER_CLUSTER_RADIUS_METERS", 50000.0)
		viper.SetDefault("PLANNER_CLUSTER_MIN_SAMPLES", 3)
		viper.SetDefault("PLANNER_MIN_FORECAST_DATA_POINTS", 10)
		viper.SetDefault("PLANNER_MIN_TRANSFER_SUGGESTIONS", 1)
		viper.SetDefault("PLANNER_IMBALANCE_THRESHOLD", 0.2)
		viper.SetDefault("PLANNER_CONFIDENCE_THRESHOLD", 0.6)
		viper.SetDefault("PLANNER_MAX_TRUCKS_TO_USE", 10)
		viper.SetDefault("PLANNER_FORECAST_WEIGHT", 0.5)
		viper.SetDefault("PLANNER_NEED_WEIGHT", 0.2)
		viper.SetDefault("PLANNER_SURPLUS_WEIGHT", 0.2)
		viper.SetDefault("PLANNER_FIT_WEIGHT", 0.1)
		viper.SetDefault("PLANNER_MIN_CONFIDENCE", 0.1)
		viper.SetDefault("PLANNER_BALANCE_CONFIDENCE", 0.8)
		viper.SetDefault("PLANNER_FORCED_CONFIDENCE", 0.6)
		viper.SetDefault("PLANNER_RUN_TIMEOUT_SECONDS", 120)
		viper.SetDefault("PLANNER_MAX_CONCURRENT_RUNS", 4)
		viper.SetDefault("PLANNER_SOLVE_BUDGET_SECONDS", 5)

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:        viper.GetBool("CACHE_ENABLED"),
				RedisURL:       viper.GetString("REDIS_URL"),
				RedisHost:      viper.GetString("REDIS_HOST"),
				RedisPort:      viper.GetString("REDIS_PORT"),
				RedisPassword:  viper.GetString("REDIS_PASSWORD"),
				RedisDB:        viper.GetInt("REDIS_DB"),
				PlanTTLSeconds: viper.GetInt("CACHE_PLAN_TTL_SECONDS"),
			},
			Planner: PlannerConfig{
				ForecastHorizonDays:    viper.GetInt("PLANNER_FORECAST_HORIZON_DAYS"),
				ClusterRadiusMeters:    viper.GetFloat64("PLANNER_CLUSTER_RADIUS_METERS"),
				ClusterMinSamples:      viper.GetInt("PLANNER_CLUSTER_MIN_SAMPLES"),
				MinForecastDataPoints:  viper.GetInt("PLANNER_MIN_FORECAST_DATA_POINTS"),
				MinTransferSuggestions: viper.GetInt("PLANNER_MIN_TRANSFER_SUGGESTIONS"),
				ImbalanceThreshold:     viper.GetFloat64("PLANNER_IMBALANCE_THRESHOLD"),
				ConfidenceThreshold:    viper.GetFloat64("PLANNER_CONFIDENCE_THRESHOLD"),
				MaxTrucksToUse:         viper.GetInt("PLANNER_MAX_TRUCKS_TO_USE"),
				ForecastWeight:         viper.GetFloat64("PLANNER_FORECAST_WEIGHT"),
				NeedWeight:             viper.GetFloat64("PLANNER_NEED_WEIGHT"),
				SurplusWeight:          viper.GetFloat64("PLANNER_SURPLUS_WEIGHT"),
				FitWeight:              viper.GetFloat64("PLANNER_FIT_WEIGHT"),
				MinConfidence:          viper.GetFloat64("PLANNER_MIN_CONFIDENCE"),
				BalanceConfidence:      viper.GetFloat64("PLANNER_BALANCE_CONFIDENCE"),
				ForcedConfidence:       viper.GetFloat64("PLANNER_FORCED_CONFIDENCE"),
				RunTimeout:             time.Duration(viper.GetInt("PLANNER_RUN_TIMEOUT_SECONDS")) * time.Second,
				MaxConcurrentRuns:      viper.GetInt("PLANNER_MAX_CONCURRENT_RUNS"),
				SolveBudget:            time.Duration(viper.GetInt("PLANNER_SOLVE_BUDGET_SECONDS")) * time.Second,
			},
		}
	})

	return instance
}
