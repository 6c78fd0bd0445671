package config

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const applicationName = "stripe-bridge"

func (c *DatabaseConfig) url(scheme string, query url.Values) string {
	query.Set("sslmode", c.SSLMode)
	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// PgxConfig builds the pool configuration. Connections identify themselves as
// stripe-bridge in pg_stat_activity.
func (c *DatabaseConfig) PgxConfig(ctx context.Context) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(c.url("postgres", url.Values{"application_name": {applicationName}}))
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	cfg.MaxConns = int32(c.MaxOpenConns)
	cfg.MinConns = int32(c.MaxIdleConns)
	cfg.MaxConnLifetime = c.ConnMaxLifetime
	cfg.MaxConnIdleTime = c.ConnMaxIdleTime
	cfg.HealthCheckPeriod = 30 * time.Second

	return cfg, nil
}

// MigrateURL returns the connection URL understood by golang-migrate's pgx/v5 driver.
func (c *DatabaseConfig) MigrateURL() string {
	return c.url("pgx5", url.Values{})
}
