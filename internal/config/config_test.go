package config

import (
	"os"
	"testing"
	"time"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		setEnv       bool
		want         string
	}{
		{
			name:         "environment variable set",
			key:          "TEST_KEY_1",
			defaultValue: "default",
			envValue:     "custom",
			setEnv:       true,
			want:         "custom",
		},
		{
			name:         "environment variable not set",
			key:          "TEST_KEY_2",
			defaultValue: "default",
			envValue:     "",
			setEnv:       false,
			want:         "default",
		},
		{
			name:         "empty environment variable",
			key:          "TEST_KEY_3",
			defaultValue: "default",
			envValue:     "",
			setEnv:       true,
			want:         "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}
			if got := getEnvOrDefault(tt.key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnvOrDefault(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	if err := LoadConfig(); err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if AppConfig.Port != 8080 {
		t.Errorf("Port = %d, want 8080", AppConfig.Port)
	}
	if AppConfig.VerificationCodeTTL != 10*time.Minute {
		t.Errorf("VerificationCodeTTL = %v, want 10m", AppConfig.VerificationCodeTTL)
	}
	if AppConfig.VerificationRateWindow != 60*time.Minute {
		t.Errorf("VerificationRateWindow = %v, want 60m", AppConfig.VerificationRateWindow)
	}
	if AppConfig.VerificationRateMaxRequest != 5 {
		t.Errorf("VerificationRateMaxRequest = %d, want 5", AppConfig.VerificationRateMaxRequest)
	}
	if AppConfig.SessionExtensionWindow != 168*time.Hour {
		t.Errorf("SessionExtensionWindow = %v, want 168h", AppConfig.SessionExtensionWindow)
	}
	if AppConfig.VerificationCodeCollection != "verification_codes" {
		t.Errorf("VerificationCodeCollection = %q, want %q", AppConfig.VerificationCodeCollection, "verification_codes")
	}
}

func TestLoadConfigInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad port", key: "PORT", value: "not-a-port"},
		{name: "bad code ttl", key: "VERIFICATION_CODE_TTL", value: "ten minutes"},
		{name: "bad rate max", key: "VERIFICATION_RATE_MAX_REQUESTS", value: "many"},
		{name: "bad session window", key: "SESSION_EXTENSION_WINDOW", value: "1week"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv(tt.key, tt.value)
			defer os.Unsetenv(tt.key)

			if err := LoadConfig(); err == nil {
				t.Errorf("LoadConfig() with %s=%q expected error, got nil", tt.key, tt.value)
			}
		})
	}
}
