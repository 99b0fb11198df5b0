package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/mail"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/KaramelBytes/areamail-cli/internal/recipients"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const dirName = ".areamail"

// Global configuration structure.
type Global struct {
	// Envelope
	Sender           string `mapstructure:"sender" yaml:"sender" validate:"omitempty,email"`
	DefaultRecipient string `mapstructure:"default_recipient" yaml:"default_recipient" validate:"omitempty,email_list"`
	DefaultCC        string `mapstructure:"default_cc" yaml:"default_cc" validate:"omitempty,email_list"`
	Organization     string `mapstructure:"organization" yaml:"organization" validate:"required"`
	SubjectTemplate  string `mapstructure:"subject_template" yaml:"subject_template"`

	// Normalization
	GroupSentinel   string `mapstructure:"group_sentinel" yaml:"group_sentinel" validate:"required"`
	ExcludeSentinel string `mapstructure:"exclude_sentinel" yaml:"exclude_sentinel" validate:"required"`
	HeaderLiteral   string `mapstructure:"header_literal" yaml:"header_literal"`
	SheetName       string `mapstructure:"sheet_name" yaml:"sheet_name"`
	SheetIndex      int    `mapstructure:"sheet_index" yaml:"sheet_index" validate:"gte=0"`
	StartColumn     int    `mapstructure:"start_column" yaml:"start_column" validate:"gte=0"`

	// Recipient directory
	RecipientsFile  string `mapstructure:"recipients_file" yaml:"recipients_file"`
	RecipientsSheet string `mapstructure:"recipients_sheet" yaml:"recipients_sheet"`

	// Dispatch
	Backend         string `mapstructure:"backend" yaml:"backend" validate:"oneof=gmail dir"`
	OutputDir       string `mapstructure:"output_dir" yaml:"output_dir"`
	CredentialsPath string `mapstructure:"credentials_path" yaml:"credentials_path"`
	TokenPath       string `mapstructure:"token_path" yaml:"token_path"`
	GmailBaseURL    string `mapstructure:"gmail_base_url" yaml:"gmail_base_url" validate:"omitempty,url"`
	Concurrency     int    `mapstructure:"concurrency" yaml:"concurrency" validate:"gte=1,lte=32"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec" validate:"gte=1"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts" validate:"gte=1"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms" validate:"gte=0"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms" validate:"gtefield=RetryBaseDelayMs"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogJSON  bool   `mapstructure:"log_json" yaml:"log_json"`
}

// Dir returns ~/.areamail.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.areamail/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("AREAMAIL")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("organization", "FIFGROUP")
	v.SetDefault("subject_template", "")
	v.SetDefault("group_sentinel", "JUMLAH DATA AREA")
	v.SetDefault("exclude_sentinel", "Grand Total")
	v.SetDefault("header_literal", "OFFICE_CODE")
	v.SetDefault("sheet_name", "")
	v.SetDefault("sheet_index", 0)
	v.SetDefault("start_column", 1)
	v.SetDefault("recipients_file", "")
	v.SetDefault("recipients_sheet", "PIC")
	v.SetDefault("backend", "dir")
	v.SetDefault("concurrency", 1)
	v.SetDefault("gmail_base_url", "")
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
	// AutomaticEnv only sees keys viper already knows about.
	for _, k := range []string{"sender", "default_recipient", "default_cc", "output_dir", "credentials_path", "token_path"} {
		v.SetDefault(k, "")
	}

	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	// Paths default under ~/.areamail
	if c.OutputDir == "" {
		c.OutputDir = filepath.Join(dir, "drafts")
	}
	if c.CredentialsPath == "" {
		c.CredentialsPath = filepath.Join(dir, "credentials.json")
	}
	if c.TokenPath == "" {
		c.TokenPath = filepath.Join(dir, "token.json")
	}
	return &c, nil
}

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("yaml")
	})
	_ = v.RegisterValidation("email_list", validateEmailList)
	return v
}()

// validateEmailList accepts the same separated address lists as --to and --cc.
func validateEmailList(fl validator.FieldLevel) bool {
	addrs := recipients.ParseAddresses(fl.Field().String())
	if len(addrs) == 0 {
		return false
	}
	for _, a := range addrs {
		if _, err := mail.ParseAddress(a); err != nil {
			return false
		}
	}
	return true
}

// Validate checks field constraints and reports every violation by its yaml key.
func (c *Global) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// ValidateDispatch adds the checks that only matter when drafts are created.
func (c *Global) ValidateDispatch() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Backend == "gmail" && c.Sender == "" {
		return errors.New("invalid config: sender is required for the gmail backend")
	}
	return nil
}
