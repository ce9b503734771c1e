package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type SFTPConfig struct {
	Host               string
	Port               int
	User               string
	PrivateKeyPath     string
	HostKeyFingerprint string
	BaseDir            string
	ReportsDir         string
	Timeout            time.Duration
}

type Config struct {
	DatabaseURL string

	SFTP SFTPConfig

	// ServiceFolders maps an owning service to its vendor target folder.
	// An unmapped service is a hard configuration error at upload time.
	ServiceFolders  map[string]string
	SmokeTestType   string
	SmokeTestFolder string

	UploadBatchSize  int
	NumIntakeWorkers int
	IntakeQueueSize  int

	EncryptionEnabled bool
	PGPPublicKeyPath  string

	BusinessTimeZone       string
	DowntimeStart          string
	DowntimeEnd            string
	StaleAfterBusinessDays int

	UploadInterval    time.Duration
	ReconcileInterval time.Duration
	StaleInterval     time.Duration
}

func New() (*Config, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	cfg := &Config{
		DatabaseURL: databaseURL,
		SFTP: SFTPConfig{
			Host:               os.Getenv("SFTP_HOST"),
			Port:               22,
			User:               os.Getenv("SFTP_USER"),
			PrivateKeyPath:     os.Getenv("SFTP_PRIVATE_KEY"),
			HostKeyFingerprint: os.Getenv("SFTP_HOST_KEY_FINGERPRINT"),
			BaseDir:            getEnv("SFTP_BASE_DIR", "letters"),
			ReportsDir:         getEnv("SFTP_REPORTS_DIR", "reports"),
			Timeout:            30 * time.Second,
		},
		SmokeTestType:          getEnv("SMOKE_TEST_TYPE", "SMOKE_TEST"),
		SmokeTestFolder:        getEnv("SMOKE_TEST_FOLDER", "smoketest"),
		UploadBatchSize:        10,
		NumIntakeWorkers:       4,
		IntakeQueueSize:        100,
		PGPPublicKeyPath:       os.Getenv("PGP_PUBLIC_KEY"),
		BusinessTimeZone:       getEnv("BUSINESS_TIMEZONE", "Europe/Berlin"),
		DowntimeStart:          getEnv("VENDOR_DOWNTIME_START", "22:30"),
		DowntimeEnd:            getEnv("VENDOR_DOWNTIME_END", "23:30"),
		StaleAfterBusinessDays: 5,
		UploadInterval:         5 * time.Minute,
		ReconcileInterval:      15 * time.Minute,
		StaleInterval:          1 * time.Hour,
	}

	folders, err := parseFolderMap(os.Getenv("SERVICE_FOLDERS"))
	if err != nil {
		return nil, err
	}
	cfg.ServiceFolders = folders

	cfg.SFTP.Port, err = getEnvAsInt("SFTP_PORT", cfg.SFTP.Port)
	if err != nil {
		return nil, err
	}

	cfg.UploadBatchSize, err = getEnvAsInt("UPLOAD_BATCH_SIZE", cfg.UploadBatchSize)
	if err != nil {
		return nil, err
	}

	cfg.NumIntakeWorkers, err = getEnvAsInt("NUM_INTAKE_WORKERS", cfg.NumIntakeWorkers)
	if err != nil {
		return nil, err
	}

	cfg.IntakeQueueSize, err = getEnvAsInt("INTAKE_QUEUE_SIZE", cfg.IntakeQueueSize)
	if err != nil {
		return nil, err
	}

	cfg.StaleAfterBusinessDays, err = getEnvAsInt("STALE_AFTER_BUSINESS_DAYS", cfg.StaleAfterBusinessDays)
	if err != nil {
		return nil, err
	}

	cfg.EncryptionEnabled, err = getEnvAsBool("ENCRYPTION_ENABLED", false)
	if err != nil {
		return nil, err
	}
	if cfg.EncryptionEnabled && cfg.PGPPublicKeyPath == "" {
		return nil, fmt.Errorf("ENCRYPTION_ENABLED is set but PGP_PUBLIC_KEY is not")
	}

	cfg.UploadInterval, err = getEnvAsDuration("UPLOAD_INTERVAL", cfg.UploadInterval)
	if err != nil {
		return nil, err
	}

	cfg.ReconcileInterval, err = getEnvAsDuration("RECONCILE_INTERVAL", cfg.ReconcileInterval)
	if err != nil {
		return nil, err
	}

	cfg.StaleInterval, err = getEnvAsDuration("STALE_INTERVAL", cfg.StaleInterval)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// parseFolderMap parses "serviceA:folderA,serviceB:folderB".
func parseFolderMap(raw string) (map[string]string, error) {
	folders := make(map[string]string)
	if raw == "" {
		return folders, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		service, folder, found := strings.Cut(strings.TrimSpace(pair), ":")
		if !found || service == "" || folder == "" {
			return nil, fmt.Errorf("invalid SERVICE_FOLDERS entry %q: expected service:folder", pair)
		}
		folders[service] = folder
	}
	return folders, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: expected an integer, got '%s'", key, valueStr)
	}

	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: expected a boolean, got '%s'", key, valueStr)
	}

	return value, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: expected a duration, got '%s'", key, valueStr)
	}

	return value, nil
}
