package config

import "time"

type VendorConfig struct {
	BaseURL       string
	APIKey        string
	Engine        string
	Timeout       time.Duration
	RatePerMinute int
}

// LoadVendorConfig reads the vendor endpoint and its client-side limits.
// VENDOR_API_KEY is optional so that the server can boot against a stub.
func LoadVendorConfig() VendorConfig {
	return VendorConfig{
		BaseURL:       getenv("VENDOR_BASE_URL", "https://serpapi.com"),
		APIKey:        getenv("VENDOR_API_KEY", ""),
		Engine:        getenv("VENDOR_ENGINE", "google_hotels"),
		Timeout:       envDur("VENDOR_TIMEOUT", 20*time.Second),
		RatePerMinute: envPositiveInt("VENDOR_RATE_PER_MINUTE", 30),
	}
}
