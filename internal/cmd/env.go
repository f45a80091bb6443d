package cmd

import (
	"fmt"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/validate"
	"github.com/caarlos0/env/v7"
	czdb "github.com/cz88/czdb-go"
)

// environment represents the configuration that is kept in the environment.
type environment struct {
	DBPath string `env:"CZDB_PATH,notEmpty"`
	Key    string `env:"CZDB_KEY,notEmpty"`
	Mode   string `env:"CZDB_MODE" envDefault:"memory"`

	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// MetricsAddr is the optional listen address of the Prometheus metrics
	// handler.  Empty disables the listener.
	MetricsAddr string `env:"METRICS_ADDR"`

	CacheCount int `env:"CZDB_CACHE_COUNT" envDefault:"0"`

	Verbosity uint8 `env:"VERBOSE" envDefault:"0"`

	LogTimestamp strictBool `env:"LOG_TIMESTAMP" envDefault:"1"`
}

// parseEnvironment reads the configuration.
func parseEnvironment() (envs *environment, err error) {
	envs = &environment{}
	err = env.Parse(envs)
	if err != nil {
		return nil, fmt.Errorf("parsing environments: %w", err)
	}

	return envs, nil
}

// type check
var _ validate.Interface = (*environment)(nil)

// Validate implements the [validate.Interface] interface for *environment.
func (envs *environment) Validate() (err error) {
	errs := []error{
		validate.NotEmpty("CZDB_PATH", envs.DBPath),
		validate.NotEmpty("CZDB_KEY", envs.Key),
		validate.NotNegative("CZDB_CACHE_COUNT", envs.CacheCount),
	}

	_, err = czdb.NewSearchMode(envs.Mode)
	if err != nil {
		errs = append(errs, fmt.Errorf("CZDB_MODE: %w", err))
	}

	_, err = slogutil.NewFormat(envs.LogFormat)
	if err != nil {
		errs = append(errs, fmt.Errorf("LOG_FORMAT: %w", err))
	}

	_, err = slogutil.VerbosityToLevel(envs.Verbosity)
	if err != nil {
		errs = append(errs, fmt.Errorf("VERBOSE: %w", err))
	}

	return errors.Join(errs...)
}

// strictBool is a type for booleans that are parsed from the environment
// strictly.  It only accepts "0" and "1" values.
type strictBool bool

// UnmarshalText implements the encoding.TextUnmarshaler interface for
// *strictBool.
func (sb *strictBool) UnmarshalText(b []byte) (err error) {
	if len(b) == 1 {
		switch b[0] {
		case '0':
			*sb = false

			return nil
		case '1':
			*sb = true

			return nil
		default:
			// Go on and return an error.
		}
	}

	return fmt.Errorf("invalid value %q, supported: %q, %q", b, "0", "1")
}
