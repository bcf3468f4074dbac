package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load reads a .env file into the process environment when one is present.
// Variables already set in the environment take precedence.
func Load(paths ...string) {
	if err := godotenv.Load(paths...); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
}

// Get returns the trimmed value of key, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// GetInt returns key parsed as an int, or fallback when unset or malformed.
func GetInt(key string, fallback int) int {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config key=%s value=%q invalid int, using %d", key, v, fallback)
		return fallback
	}
	return n
}

// GetFloat returns key parsed as a float64, or fallback when unset or malformed.
func GetFloat(key string, fallback float64) float64 {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("config key=%s value=%q invalid float, using %g", key, v, fallback)
		return fallback
	}
	return f
}

// GetBool returns key parsed by strconv.ParseBool, or fallback when unset or malformed.
func GetBool(key string, fallback bool) bool {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("config key=%s value=%q invalid bool, using %t", key, v, fallback)
		return fallback
	}
	return b
}

// GetDuration returns key parsed by time.ParseDuration, or fallback when unset or malformed.
func GetDuration(key string, fallback time.Duration) time.Duration {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config key=%s value=%q invalid duration, using %s", key, v, fallback)
		return fallback
	}
	return d
}
