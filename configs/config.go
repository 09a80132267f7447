package config

import "os"

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
}

type Config struct {
	Port               string
	PostgresURI        string
	JWTSecret          string
	UploadDir          string
	SchedulerAutostart bool
	R2                 R2
}

func LoadConfig() *Config {
	return &Config{
		Port:               getEnv("PORT", "3060"),
		PostgresURI:        getEnv("DATABASE_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", "super-secret-key-123"),
		UploadDir:          getEnv("UPLOAD_DIR", "data/uploads"),
		SchedulerAutostart: getEnv("SCHEDULER_AUTOSTART", "true") == "true",
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
