package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath  = ".env"
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	defaultRunAddress    = ":8080"
	defaultJWTSecret     = "change-me-in-production"
	defaultJWTExpireDays = 30
	defaultMigrations    = "migrations"
)

type Config struct {
	Env    string
	DB     DB
	Server Server
	Auth   Auth
	Logger Logger
}

type DB struct {
	DatabaseURI string `env:"DATABASE_URI"`
	Migrations  string `env:"MIGRATIONS_PATH"`
}

type Server struct {
	RunAddress string `env:"RUN_ADDRESS"`
}

type Auth struct {
	JWTSecret     string `env:"JWT_SECRET"`
	JWTExpireDays int    `env:"JWT_EXPIRE_DAYS"`
}

type Logger struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// MustLoad reads configuration from the environment, optionally seeded
// from a .env file. Values are always explicit on the returned struct;
// nothing reads viper after this point.
func MustLoad() *Config {
	if err := godotenv.Load(envPath); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	viper.AutomaticEnv()

	viper.SetDefault("RUN_ADDRESS", defaultRunAddress)
	viper.SetDefault("MIGRATIONS_PATH", defaultMigrations)
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("JWT_EXPIRE_DAYS", defaultJWTExpireDays)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("APP_ENV", EnvLocal)

	return &Config{
		Env: viper.GetString("APP_ENV"),
		DB: DB{
			DatabaseURI: viper.GetString("DATABASE_URI"),
			Migrations:  viper.GetString("MIGRATIONS_PATH"),
		},
		Server: Server{RunAddress: viper.GetString("RUN_ADDRESS")},
		Auth: Auth{
			JWTSecret:     viper.GetString("JWT_SECRET"),
			JWTExpireDays: viper.GetInt("JWT_EXPIRE_DAYS"),
		},
		Logger: Logger{LogLevel: viper.GetString("LOG_LEVEL")},
	}
}
