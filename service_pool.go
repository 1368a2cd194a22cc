package collabkit

import (
	"time"

	"github.com/fernandezvara/dbkit"
)

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxOpenConnections    int           `json:"max_open_connections"`
	MaxIdleConnections    int           `json:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `json:"connection_max_lifetime"`
	ConnectionMaxIdleTime time.Duration `json:"connection_max_idle_time"`
}

// DefaultPoolConfig returns pool settings suited to a single API instance.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConnections:    25,
		MaxIdleConnections:    10,
		ConnectionMaxLifetime: 30 * time.Minute,
		ConnectionMaxIdleTime: 5 * time.Minute,
	}
}

// withDefaults fills unset fields from DefaultPoolConfig.
func (c PoolConfig) withDefaults() PoolConfig {
	d := DefaultPoolConfig()
	if c.MaxOpenConnections <= 0 {
		c.MaxOpenConnections = d.MaxOpenConnections
	}
	if c.MaxIdleConnections <= 0 {
		c.MaxIdleConnections = d.MaxIdleConnections
	}
	if c.MaxIdleConnections > c.MaxOpenConnections {
		c.MaxIdleConnections = c.MaxOpenConnections
	}
	if c.ConnectionMaxLifetime <= 0 {
		c.ConnectionMaxLifetime = d.ConnectionMaxLifetime
	}
	if c.ConnectionMaxIdleTime <= 0 {
		c.ConnectionMaxIdleTime = d.ConnectionMaxIdleTime
	}
	return c
}

// ConfigureConnectionPool updates the database connection pool settings.
// Zero fields keep their defaults.
func (s *Service) ConfigureConnectionPool(config PoolConfig) error {
	db, ok := s.db.(*dbkit.DBKit)
	if !ok {
		return NewError(ErrUnsupported, "connection pool configuration requires a dbkit.DBKit instance")
	}
	bunDB := db.Bun()
	if bunDB == nil {
		return NewError(ErrDatabaseError, "database instance not available")
	}

	config = config.withDefaults()
	bunDB.SetMaxOpenConns(config.MaxOpenConnections)
	bunDB.SetMaxIdleConns(config.MaxIdleConnections)
	bunDB.SetConnMaxLifetime(config.ConnectionMaxLifetime)
	bunDB.SetConnMaxIdleTime(config.ConnectionMaxIdleTime)

	s.logger.Info().
		Int("max_open", config.MaxOpenConnections).
		Int("max_idle", config.MaxIdleConnections).
		Dur("max_lifetime", config.ConnectionMaxLifetime).
		Dur("max_idle_time", config.ConnectionMaxIdleTime).
		Msg("connection pool configured")
	return nil
}
