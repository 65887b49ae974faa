package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"payment-mandate-service/internal/models"
)

// Config is loaded once at startup from config.yaml. The invoice list is
// the seed set for the ledger; invoices are never added at runtime.
type Config struct {
	Server struct {
		Port    int  `yaml:"port"`
		Verbose bool `yaml:"verbose"`
	} `yaml:"server"`

	Mandates struct {
		// Name of the environment variable holding the sealing secret.
		SecretEnv string `yaml:"secret_env"`
		// Development fallback used when the variable is unset.
		FallbackSecret string `yaml:"fallback_secret"`
	} `yaml:"mandates"`

	Invoices []InvoiceSeed `yaml:"invoices"`
}

// InvoiceSeed is the yaml form of a seed invoice. Amounts are strings so
// they parse straight into fixed-point decimals without a float step.
type InvoiceSeed struct {
	InvoiceID   string `yaml:"invoice_id"`
	ShortID     string `yaml:"short_id"`
	UserID      string `yaml:"user_id"`
	Category    string `yaml:"category"`
	Label       string `yaml:"label"`
	Vendor      string `yaml:"vendor"`
	Description string `yaml:"description"`
	Amount      string `yaml:"amount"`
	DueDate     string `yaml:"due_date"`
}

// LoadConfig reads and validates the yaml configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Mandates.SecretEnv == "" {
		cfg.Mandates.SecretEnv = "DEV_SECRET"
	}

	return &cfg, nil
}

// Secret resolves the sealing secret: the configured environment variable
// wins, the yaml fallback covers development setups.
func (c *Config) Secret() string {
	if v := os.Getenv(c.Mandates.SecretEnv); v != "" {
		return v
	}
	return c.Mandates.FallbackSecret
}

// SeedInvoices converts the yaml seed entries into ledger invoices,
// rejecting amounts that do not parse as decimals.
func (c *Config) SeedInvoices() ([]models.Invoice, error) {
	invoices := make([]models.Invoice, 0, len(c.Invoices))
	for _, seed := range c.Invoices {
		if seed.InvoiceID == "" {
			return nil, fmt.Errorf("seed invoice missing invoice_id")
		}

		amount, err := decimal.NewFromString(seed.Amount)
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q for invoice %s: %v",
				seed.Amount, seed.InvoiceID, err)
		}

		invoices = append(invoices, models.Invoice{
			InvoiceID:   seed.InvoiceID,
			ShortID:     seed.ShortID,
			UserID:      seed.UserID,
			Category:    seed.Category,
			Label:       seed.Label,
			Vendor:      seed.Vendor,
			Description: seed.Description,
			Amount:      amount,
			DueDate:     seed.DueDate,
		})
	}
	return invoices, nil
}
