package config

import "fmt"

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	BaseURL        string   `mapstructure:"base_url"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// SessionConfig describes how the external identity provider's session
// tokens are verified. The provider itself is a black box; we only share
// its signing secret to read the account id and email out of the token.
type SessionConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type CookieConfig struct {
	Domain   string `mapstructure:"domain"`
	Path     string `mapstructure:"path"`
	Secure   bool   `mapstructure:"secure"`
	SameSite string `mapstructure:"same_site"`
}

type AuthConfig struct {
	Session SessionConfig `mapstructure:"session"`
	Cookie  CookieConfig  `mapstructure:"cookie"`
}

// EntitlementConfig holds the trial allowance settings.
type EntitlementConfig struct {
	// TrialQuestions is the ceiling for the free-question counter.
	TrialQuestions int `mapstructure:"trial_questions"`
}

// PlanConfig describes one purchasable plan: how long it extends the paid
// window and what the gateway should charge for it.
type PlanConfig struct {
	Days     int     `mapstructure:"days"`
	Amount   float64 `mapstructure:"amount"`
	Currency string  `mapstructure:"currency"`
}

// BillingConfig holds the payment gateway credentials and the plan table.
type BillingConfig struct {
	MerchantAccount string                `mapstructure:"merchant_account"`
	MerchantDomain  string                `mapstructure:"merchant_domain"`
	MerchantSecret  string                `mapstructure:"merchant_secret"`
	APIURL          string                `mapstructure:"api_url"`
	RequestTimeout  int                   `mapstructure:"request_timeout_seconds"`
	Plans           map[string]PlanConfig `mapstructure:"plans"`
}

type EmailConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUser     string `mapstructure:"smtp_user"`
	SMTPPassword string `mapstructure:"smtp_password"`
	FromAddress  string `mapstructure:"from_address"`
	FromName     string `mapstructure:"from_name"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
