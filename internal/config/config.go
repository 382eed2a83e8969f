package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	ServerPort     string
	DiscordToken   string
	DiscordOwnerID string
	CommandPrefix  string
	OpenTDBURL     string
	TimeLimit      int
}

func Load() *Config {
	godotenv.Load()

	return &Config{
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", "postgres"),
		DBName:         getEnv("DB_NAME", "trivia"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		DiscordToken:   getEnv("DISCORD_TOKEN", ""),
		DiscordOwnerID: getEnv("DISCORD_OWNER_ID", ""),
		CommandPrefix:  getEnv("COMMAND_PREFIX", "!"),
		OpenTDBURL:     getEnv("OPENTDB_URL", "https://opentdb.com"),
		TimeLimit:      getEnvInt("QUESTION_TIME_LIMIT", 60),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}
