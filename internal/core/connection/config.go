// Package connection keeps the process-local registry of remote database connections.
package connection

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/go-viper/mapstructure/v2"
	"github.com/lib/pq"
	"github.com/microsoft/go-mssqldb/msdsn"

	"github.com/andrew2loo/RethinkBI/internal/apierr"
)

// Driver is a remote database driver.
type Driver string

const (
	Postgres Driver = "postgres"
	MySQL    Driver = "mysql"
	MSSQL    Driver = "mssql"
)

// Drivers lists the accepted drivers.
var Drivers = []Driver{Postgres, MySQL, MSSQL}

// DefaultPort returns the well-known port of d.
func (d Driver) DefaultPort() int {
	switch d {
	case Postgres:
		return 5432
	case MySQL:
		return 3306
	case MSSQL:
		return 1433
	}
	return 0
}

// Config describes a connection to create. Either DSN or Host is set.
type Config struct {
	Driver   Driver `mapstructure:"driver" json:"driver"`
	Name     string `mapstructure:"name" json:"name"`
	DSN      string `mapstructure:"dsn" json:"dsn,omitempty"`
	Host     string `mapstructure:"host" json:"host,omitempty"`
	Port     int    `mapstructure:"port" json:"port,omitempty"`
	Database string `mapstructure:"database" json:"database,omitempty"`
	User     string `mapstructure:"user" json:"user,omitempty"`
	Password string `mapstructure:"password" json:"-"`
	SSL      bool   `mapstructure:"ssl" json:"ssl,omitempty"`
}

// ParseConfig decodes and validates an untyped create-connection payload.
func ParseConfig(payload any) (*Config, error) {
	if payload == nil {
		return nil, apierr.NewValidation("", "connection config is required")
	}

	var cfg Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &cfg,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, apierr.Wrap(apierr.Internal, err, "failed to build decoder")
	}
	if err := dec.Decode(payload); err != nil {
		return nil, apierr.NewValidation("", "invalid connection config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the driver, the name and that the DSN is well formed for the driver.
func (c *Config) Validate() error {
	c.Driver = Driver(strings.ToLower(string(c.Driver)))
	switch c.Driver {
	case Postgres, MySQL, MSSQL:
	case "":
		return apierr.NewValidation("driver", "is required (postgres, mysql or mssql)")
	default:
		return apierr.NewValidation("driver", "unknown driver %q", c.Driver)
	}
	if strings.TrimSpace(c.Name) == "" {
		return apierr.NewValidation("name", "is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return apierr.NewValidation("port", "must be between 1 and 65535")
	}

	if c.DSN != "" {
		if c.Host != "" {
			return apierr.NewValidation("dsn", "dsn and host are mutually exclusive")
		}
		if err := checkDSN(c.Driver, c.DSN); err != nil {
			return apierr.NewValidation("dsn", "invalid %s dsn: %v", c.Driver, err)
		}
		return nil
	}
	if strings.TrimSpace(c.Host) == "" {
		return apierr.NewValidation("host", "either dsn or host is required")
	}
	return nil
}

// ConnString returns the driver DSN, assembling it from the host fields when no DSN was given.
func (c *Config) ConnString() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}

	port := c.Port
	if port == 0 {
		port = c.Driver.DefaultPort()
	}
	addr := net.JoinHostPort(c.Host, strconv.Itoa(port))

	var dsn string
	switch c.Driver {
	case Postgres:
		u := url.URL{Scheme: "postgres", Host: addr, Path: "/" + c.Database}
		if c.User != "" {
			u.User = url.UserPassword(c.User, c.Password)
		}
		sslmode := "disable"
		if c.SSL {
			sslmode = "require"
		}
		u.RawQuery = url.Values{"sslmode": {sslmode}}.Encode()
		dsn = u.String()
	case MySQL:
		mc := mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = addr
		mc.DBName = c.Database
		if c.SSL {
			mc.TLSConfig = "true"
		}
		dsn = mc.FormatDSN()
	case MSSQL:
		u := url.URL{Scheme: "sqlserver", Host: addr}
		if c.User != "" {
			u.User = url.UserPassword(c.User, c.Password)
		}
		q := url.Values{}
		if c.Database != "" {
			q.Set("database", c.Database)
		}
		if c.SSL {
			q.Set("encrypt", "true")
		} else {
			q.Set("encrypt", "disable")
		}
		u.RawQuery = q.Encode()
		dsn = u.String()
	default:
		return "", fmt.Errorf("unsupported driver: %s", c.Driver)
	}

	if err := checkDSN(c.Driver, dsn); err != nil {
		return "", fmt.Errorf("failed to build %s dsn: %w", c.Driver, err)
	}
	return dsn, nil
}

// checkDSN parses dsn with the driver's own parser.
func checkDSN(d Driver, dsn string) error {
	switch d {
	case Postgres:
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			_, err := pq.ParseURL(dsn)
			return err
		}
		if !strings.Contains(dsn, "=") {
			return fmt.Errorf("expected a postgres:// url or key=value pairs")
		}
		return nil
	case MySQL:
		_, err := mysql.ParseDSN(dsn)
		return err
	case MSSQL:
		_, err := msdsn.Parse(dsn)
		return err
	}
	return fmt.Errorf("unsupported driver: %s", d)
}
