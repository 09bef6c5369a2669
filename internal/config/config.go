package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string

	// Practice information
	ClinicName     string
	ClinicPhone    string
	ClinicAddress  string
	ClinicTimezone string
	Providers      []string

	// Twilio SMS
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// Patient-facing links
	IntakeFormURL    string
	PatientPortalURL string

	// Vapi voice assistant
	VapiAPIKey              string
	VapiAssistantID         string
	VapiReminderAssistantID string
	VapiPhoneNumberID       string

	// Availability search
	AvailabilityDays int

	// Waitlist offer hold
	OfferHoldWindow    time.Duration
	OfferSweepInterval time.Duration

	// Daily job times (clinic-local)
	ReminderHour       int
	ReminderMinute     int
	ReminderCallHour   int
	ReminderCallMinute int
	FollowUpHour       int
	FollowUpMinute     int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),

		ClinicName:     getEnv("CLINIC_NAME", "Family Medical Practice"),
		ClinicPhone:    getEnv("CLINIC_PHONE", "(555) 123-4567"),
		ClinicAddress:  getEnv("CLINIC_ADDRESS", ""),
		ClinicTimezone: getEnv("CLINIC_TIMEZONE", "America/New_York"),
		Providers:      getEnvAsList("PROVIDERS", nil),

		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnv("TWILIO_FROM_NUMBER", ""),

		IntakeFormURL:    getEnv("INTAKE_FORM_URL", ""),
		PatientPortalURL: getEnv("PATIENT_PORTAL_URL", ""),

		VapiAPIKey:              getEnv("VAPI_API_KEY", ""),
		VapiAssistantID:         getEnv("VAPI_ASSISTANT_ID", ""),
		VapiReminderAssistantID: getEnv("VAPI_REMINDER_ASSISTANT_ID", ""),
		VapiPhoneNumberID:       getEnv("VAPI_PHONE_NUMBER_ID", ""),

		AvailabilityDays: getEnvAsInt("AVAILABILITY_DAYS", 5),

		OfferHoldWindow:    getEnvAsDuration("OFFER_HOLD_WINDOW", 2*time.Hour),
		OfferSweepInterval: getEnvAsDuration("OFFER_SWEEP_INTERVAL", 30*time.Minute),

		ReminderHour:       getEnvAsInt("REMINDER_HOUR", 8),
		ReminderMinute:     getEnvAsInt("REMINDER_MINUTE", 0),
		ReminderCallHour:   getEnvAsInt("REMINDER_CALL_HOUR", 8),
		ReminderCallMinute: getEnvAsInt("REMINDER_CALL_MINUTE", 15),
		FollowUpHour:       getEnvAsInt("FOLLOWUP_HOUR", 9),
		FollowUpMinute:     getEnvAsInt("FOLLOWUP_MINUTE", 0),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList parses a comma-separated environment variable, trimming blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
