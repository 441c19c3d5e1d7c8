package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the webhook service. Values come from
// config.defaults.yaml (optional) overridden by APP_-prefixed environment
// variables, e.g. APP_WATI_AUTH_TOKEN.
type Config struct {
	ServerPort int    `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	// Google Sheets directory (phone -> enrollment number).
	SheetsCredentialsFile  string `mapstructure:"SHEETS_CREDENTIALS_FILE"`
	SheetsSpreadsheetID    string `mapstructure:"SHEETS_SPREADSHEET_ID"`
	SheetsPhoneColumn      string `mapstructure:"SHEETS_PHONE_COLUMN"`
	SheetsEnrollmentColumn string `mapstructure:"SHEETS_ENROLLMENT_COLUMN"`

	// Google Drive folder holding the report-card PDFs.
	DriveCredentialsFile string `mapstructure:"DRIVE_CREDENTIALS_FILE"`
	DriveFolderID        string `mapstructure:"DRIVE_FOLDER_ID"`

	// Wati messaging gateway.
	WatiBaseURL   string `mapstructure:"WATI_BASE_URL"`
	WatiAuthToken string `mapstructure:"WATI_AUTH_TOKEN"`

	// DownloadTimeoutSeconds bounds a single document download.
	DownloadTimeoutSeconds int `mapstructure:"DOWNLOAD_TIMEOUT_SECONDS"`
	// TempDir is where fetched documents are spooled before dispatch.
	// Empty means os.TempDir().
	TempDir string `mapstructure:"TEMP_DIR"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config.defaults")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.SetEnvPrefix("APP")

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SHEETS_CREDENTIALS_FILE", "credentials.json")
	v.SetDefault("SHEETS_SPREADSHEET_ID", "")
	v.SetDefault("SHEETS_PHONE_COLUMN", "Phone Number")
	v.SetDefault("SHEETS_ENROLLMENT_COLUMN", "Enrollment Number")
	v.SetDefault("DRIVE_CREDENTIALS_FILE", "credentials.json")
	v.SetDefault("DRIVE_FOLDER_ID", "")
	v.SetDefault("WATI_BASE_URL", "")
	v.SetDefault("WATI_AUTH_TOKEN", "")
	v.SetDefault("DOWNLOAD_TIMEOUT_SECONDS", 120)
	v.SetDefault("TEMP_DIR", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Configuration file ('config.defaults.yaml') not found; using defaults and environment variables.")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
