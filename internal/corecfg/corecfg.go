// Package corecfg holds the small amount of process-bootstrap configuration
// needed before the persistence store exists: where the database file
// lives and how verbosely to log. Everything else the core needs is a row
// in the Configurations table, reached through configsvc.
package corecfg

import (
	"strings"

	"github.com/spf13/viper"
)

// Bootstrap is the process-level configuration resolved from flags, env
// vars (prefixed FILEMONITOR_), and an optional config file, via viper.
type Bootstrap struct {
	DBPath   string
	LogLevel string
}

// Load binds defaults + env + an optional config file into v and returns the
// resolved Bootstrap. Flags, when present on v, take precedence because the
// caller (cobra) binds them into v before calling Load.
func Load(v *viper.Viper) Bootstrap {
	v.SetEnvPrefix("FILEMONITOR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("db", "./filemonitor.db")
	v.SetDefault("log-level", "info")

	v.SetConfigName("filemonitor")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/filemonitor")
	_ = v.ReadInConfig() // optional; absence is not an error

	return Bootstrap{
		DBPath:   v.GetString("db"),
		LogLevel: v.GetString("log-level"),
	}
}
