package sqlkit

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/duke-git/lancet/v2/slice"

	"github.com/preceeder/go.db.sqlkit/dberr"
)

// Table-name placeholder conventions. With EnclosureBrackets a template
// {{users}} resolves to <prefix>users; with EnclosurePrefix the token #pre#
// is replaced by the prefix. A leading @ keeps the placeholder literal.
const (
	EnclosureBrackets = "{{"
	EnclosurePrefix   = "#pre#"
	EnclosureNone     = "none"
)

var defaultForcePrepareCommands = []string{"select", "call", "show"}

type Config struct {
	Driver       string `json:"driver" mapstructure:"driver"`
	DSN          string `json:"dsn" mapstructure:"dsn"` // 设置后忽略下面的连接参数
	Host         string `json:"host" mapstructure:"host"`
	Port         string `json:"port" mapstructure:"port"`
	User         string `json:"user" mapstructure:"user"`
	Password     string `json:"password" mapstructure:"password"`
	Database     string `json:"database" mapstructure:"database"`
	Params       string `json:"params" mapstructure:"params"` // 其他配置数据, 放在链接后面的参数中
	MaxOpenConns int    `json:"maxOpenConns" mapstructure:"max_open_conns"`
	MaxIdleConns int    `json:"maxIdleConns" mapstructure:"max_idle_conns"`

	TablePrefix    string `json:"tablePrefix" mapstructure:"table_prefix"`
	TableEnclosure string `json:"tableEnclosure" mapstructure:"table_enclosure"` // "{{", "#pre#" 或 "none", 默认 "#pre#"
	// EscapePrefix protects placeholder text inside string literals and drops
	// the @ escape from executed queries.
	EscapePrefix         bool     `json:"escapePrefix" mapstructure:"escape_prefix"`
	ForcePrepare         bool     `json:"forcePrepare" mapstructure:"force_prepare"`
	ForcePrepareCommands []string `json:"forcePrepareCommands" mapstructure:"force_prepare_commands"`

	Logger *slog.Logger `json:"-" mapstructure:"-"`
}

// DefaultConfig returns a MySQL config with prefix escaping and force-prepare enabled.
func DefaultConfig() Config {
	return Config{
		Driver:               "mysql",
		Host:                 "127.0.0.1",
		Port:                 "3306",
		MaxOpenConns:         10,
		MaxIdleConns:         2,
		TableEnclosure:       EnclosurePrefix,
		EscapePrefix:         true,
		ForcePrepare:         true,
		ForcePrepareCommands: defaultForcePrepareCommands,
	}
}

// DriverName is the database/sql driver the config opens.
func (c Config) DriverName() string {
	switch strings.ToLower(c.Driver) {
	case "", "mysql":
		return "mysql"
	case "postgresql", "pq":
		return "postgres"
	case "sqlite":
		return "sqlite3"
	}
	return c.Driver
}

// DataSource returns DSN, or builds one from the connection fields.
func (c Config) DataSource() string {
	if c.DSN != "" {
		return c.DSN
	}
	var dsn string
	switch c.DriverName() {
	case "postgres", "pgx":
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(c.User, c.Password),
			Host:   c.Host,
			Path:   "/" + c.Database,
		}
		if c.Port != "" {
			u.Host += ":" + c.Port
		}
		dsn = u.String()
	case "sqlite3":
		dsn = c.Database
	default:
		//dsn := "root:password@tcp(127.0.0.1:3306)/database"
		dsn = fmt.Sprintf("%v:%v@tcp(%v:%v)/%v", c.User, c.Password, c.Host, c.Port, c.Database)
	}
	if c.Params != "" {
		dsn = strings.Join([]string{dsn, c.Params}, "?")
	}
	return dsn
}

func (c Config) validate() error {
	if !slice.Contain([]string{"", EnclosureBrackets, EnclosurePrefix, EnclosureNone}, c.TableEnclosure) {
		return dberr.Spec(dberr.ErrInvalidSpec, "invalid table enclosure %q", c.TableEnclosure)
	}
	return nil
}

func (c Config) enclosure() string {
	if c.TableEnclosure == "" {
		return EnclosurePrefix
	}
	return c.TableEnclosure
}

func (c Config) prepareCommands() []string {
	if c.ForcePrepareCommands == nil {
		return defaultForcePrepareCommands
	}
	return slice.Map(c.ForcePrepareCommands, func(_ int, s string) string {
		return strings.ToLower(strings.TrimSpace(s))
	})
}
