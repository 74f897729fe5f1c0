package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	AuthSecret    string
	AdminUser     string
	AdminPassHash string // bcrypt

	CORSOrigins []string

	// Governance seed used when the config table is empty. Stored as the
	// first versioned row on startup; later changes go through the admin API.
	IA1Weight      float64
	IA2Weight      float64
	EndWeight      float64
	DirectWeight   float64
	IndirectWeight float64
	Level1Min      float64
	Level2Min      float64
	Level3Min      float64
	POTarget       float64
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr: addr,
		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		AuthSecret:    envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AdminUser:     envOr("ADMIN_USER", "admin"),
		AdminPassHash: envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),

		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:3000"),

		IA1Weight:      envFloat("GOV_IA1_WEIGHT", 20),
		IA2Weight:      envFloat("GOV_IA2_WEIGHT", 20),
		EndWeight:      envFloat("GOV_END_WEIGHT", 60),
		DirectWeight:   envFloat("GOV_DIRECT_WEIGHT", 0.8),
		IndirectWeight: envFloat("GOV_INDIRECT_WEIGHT", 0.2),
		Level1Min:      envFloat("GOV_LEVEL1_MIN", 60),
		Level2Min:      envFloat("GOV_LEVEL2_MIN", 70),
		Level3Min:      envFloat("GOV_LEVEL3_MIN", 85),
		POTarget:       envFloat("GOV_PO_TARGET", 1.8),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envFloat(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
