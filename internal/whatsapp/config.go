// Package whatsapp implements the WhatsApp Business Cloud API adapter:
// outbound text delivery and inbound webhook payload parsing.
package whatsapp

// Config holds WhatsApp Cloud API credentials and delivery mode.
type Config struct {
	APIToken      string `yaml:"api_token"`
	VerifyToken   string `yaml:"verify_token"`
	PhoneNumberID string `yaml:"phone_number_id"`
	APIBaseURL    string `yaml:"api_base_url"`
	// Simulate skips the Cloud API entirely and records outbound messages
	// locally. This is the default so the assistant runs without credentials.
	Simulate bool `yaml:"simulate"`
}

// DefaultConfig returns a configuration suitable for local development.
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL: defaultAPIBaseURL,
		Simulate:   true,
	}
}
