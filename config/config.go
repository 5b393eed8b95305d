package config

import (
	"fmt"
	"math"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/angel88c/rolling-forecast-sub000/internal/domain"
)

// Config es la configuración completa de la aplicación.
type Config struct {
	Input   InputConfig   `yaml:"input"`
	Rules   RulesConfig   `yaml:"rules"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// InputConfig controla la lectura del workbook.
type InputConfig struct {
	Sheet         string `yaml:"sheet"`           // vacío = primera hoja
	MaxHeaderScan int    `yaml:"max_header_scan"` // filas candidatas a header
	MaxFileSizeMB int    `yaml:"max_file_size_mb"`
}

// RulesConfig son las reglas de negocio en el YAML. Se mapean a un
// domain.BusinessRules inmutable al arrancar; nada las muta después.
type RulesConfig struct {
	MinLeadTimeWeeks    float64          `yaml:"min_lead_time_weeks"`
	PenaltyDefault      float64          `yaml:"penalty_default"` // probabilidades != 60%
	Penalty60           float64          `yaml:"penalty_60"`      // probabilidad = 60% (±0.01)
	DRDaysOffset        int              `yaml:"dr_days_offset"`
	SATDaysOffset       int              `yaml:"sat_days_offset"`
	InicioPct           float64          `yaml:"inicio_pct"`
	DRPct               float64          `yaml:"dr_pct"`
	FATPct              float64          `yaml:"fat_pct"`
	SATPct              float64          `yaml:"sat_pct"`
	DRFATSplit          float64          `yaml:"dr_fat_split"`
	FallbackLeadTime    float64          `yaml:"fallback_lead_time"`
	DefaultPaymentTerms string           `yaml:"default_payment_terms"`
	LeadTimeBands       []LeadTimeBandYL `yaml:"lead_time_bands"`
}

// LeadTimeBandYL es una banda de lead time por monto en el YAML.
// MaxAmount <= 0 significa sin tope (última banda).
type LeadTimeBandYL struct {
	MinAmount float64 `yaml:"min_amount"`
	MaxAmount float64 `yaml:"max_amount"`
	Weeks     float64 `yaml:"weeks"`
}

// StorageConfig controla dónde se persiste el histórico de clientes.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env
// si existe. Un path vacío devuelve la configuración por defecto.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// BusinessRules materializa las reglas como valor de dominio inmutable.
func (c *Config) BusinessRules() domain.BusinessRules {
	r := c.Rules
	rules := domain.BusinessRules{
		MinLeadTimeWeeks:    r.MinLeadTimeWeeks,
		PenaltyDefault:      r.PenaltyDefault,
		Penalty60:           r.Penalty60,
		DRDaysOffset:        r.DRDaysOffset,
		SATDaysOffset:       r.SATDaysOffset,
		InicioPct:           r.InicioPct,
		DRPct:               r.DRPct,
		FATPct:              r.FATPct,
		SATPct:              r.SATPct,
		DRFATSplit:          r.DRFATSplit,
		FallbackLeadTime:    r.FallbackLeadTime,
		DefaultPaymentTerms: r.DefaultPaymentTerms,
	}
	for _, b := range r.LeadTimeBands {
		max := b.MaxAmount
		if max <= 0 {
			max = math.Inf(1)
		}
		rules.LeadTimeBands = append(rules.LeadTimeBands, domain.LeadTimeBand{
			MinAmount: b.MinAmount,
			MaxAmount: max,
			Weeks:     b.Weeks,
		})
	}
	return rules
}

// applyEnvOverrides sobreescribe valores con variables de entorno.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("FORECAST_DB"); v != "" {
		cfg.Storage.DSN = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Input.MaxHeaderScan <= 0 {
		cfg.Input.MaxHeaderScan = 20
	}
	if cfg.Input.MaxFileSizeMB <= 0 {
		cfg.Input.MaxFileSizeMB = 50
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "data/client_history.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	defaults := domain.DefaultBusinessRules()
	r := &cfg.Rules
	if r.MinLeadTimeWeeks <= 0 {
		r.MinLeadTimeWeeks = defaults.MinLeadTimeWeeks
	}
	if r.PenaltyDefault <= 0 {
		r.PenaltyDefault = defaults.PenaltyDefault
	}
	if r.Penalty60 <= 0 {
		r.Penalty60 = defaults.Penalty60
	}
	if r.DRDaysOffset <= 0 {
		r.DRDaysOffset = defaults.DRDaysOffset
	}
	if r.SATDaysOffset <= 0 {
		r.SATDaysOffset = defaults.SATDaysOffset
	}
	if r.InicioPct <= 0 && r.DRPct <= 0 && r.FATPct <= 0 && r.SATPct <= 0 {
		r.InicioPct = defaults.InicioPct
		r.DRPct = defaults.DRPct
		r.FATPct = defaults.FATPct
		r.SATPct = defaults.SATPct
	}
	if r.DRFATSplit <= 0 {
		r.DRFATSplit = defaults.DRFATSplit
	}
	if r.FallbackLeadTime <= 0 {
		r.FallbackLeadTime = defaults.FallbackLeadTime
	}
	if r.DefaultPaymentTerms == "" {
		r.DefaultPaymentTerms = defaults.DefaultPaymentTerms
	}
	if len(r.LeadTimeBands) == 0 {
		for _, b := range defaults.LeadTimeBands {
			r.LeadTimeBands = append(r.LeadTimeBands, LeadTimeBandYL{
				MinAmount: b.MinAmount,
				MaxAmount: b.MaxAmount,
				Weeks:     b.Weeks,
			})
		}
	}
}

// validate revisa invariantes de las reglas que un YAML editado a mano
// puede romper.
func validate(cfg *Config) error {
	rules := cfg.BusinessRules()
	if sum := rules.StagePctSum(); math.Abs(sum-1.0) > 0.001 {
		return fmt.Errorf("config.Load: porcentajes de etapas suman %.3f, deben sumar 1.0", sum)
	}
	if rules.DRFATSplit <= 0 || rules.DRFATSplit > 1 {
		return fmt.Errorf("config.Load: dr_fat_split fuera de rango (0,1]: %.3f", rules.DRFATSplit)
	}
	return nil
}
