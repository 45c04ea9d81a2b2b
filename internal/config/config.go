package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	TextBeltAPIURL  string
	TextBeltAPIKey  string
	JWTSecret       string
	TokenTTLMinutes int
	DBDriver        string // sqlite or postgres
	DBPath          string
	DBHost          string
	DBPort          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBSSLMode       string
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: Error loading .env file")
	}

	return &Config{
		Port:            getEnv("PORT", "8000"),
		TextBeltAPIURL:  getEnv("TEXTBELT_API_URL", "https://textbelt.com"),
		TextBeltAPIKey:  getEnv("TEXTBELT_API_KEY", ""),
		JWTSecret:       getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTLMinutes: getEnvInt("TOKEN_TTL_MINUTES", 60),
		DBDriver:        getEnv("DB_DRIVER", "sqlite"),
		DBPath:          getEnv("DB_PATH", "./lightsms.db"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "postgres"),
		DBPassword:      getEnv("DB_PASSWORD", ""),
		DBName:          getEnv("DB_NAME", "lightsms"),
		DBSSLMode:       getEnv("DB_SSLMODE", "disable"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
