package collabkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// HealthReport is the service view of database and transaction health.
type HealthReport struct {
	Database     dbkit.HealthStatus `json:"database"`
	Pool         dbkit.PoolStats    `json:"pool"`
	Transactions TransactionMetrics `json:"transactions"`
	Healthy      bool               `json:"healthy"`
}

// Health performs a health check of the database connection and combines it
// with pool statistics and transaction metrics.
func (s *Service) Health(ctx context.Context) HealthReport {
	var status dbkit.HealthStatus
	if db, ok := s.db.(*dbkit.DBKit); ok {
		status = db.Health(ctx)
	} else {
		status = dbkit.HealthStatus{
			Healthy: s.Ping(ctx) == nil,
			Error:   "limited health check: not a dbkit.DBKit instance",
		}
	}

	metrics := s.GetTransactionMetrics()
	return HealthReport{
		Database:     status,
		Pool:         s.GetPoolStats(),
		Transactions: metrics,
		Healthy:      status.Healthy && metrics.Healthy(),
	}
}

// IsHealthy performs a simple health check of the database connection.
func (s *Service) IsHealthy(ctx context.Context) bool {
	if db, ok := s.db.(*dbkit.DBKit); ok {
		return db.IsHealthy(ctx)
	}
	return s.Ping(ctx) == nil
}

// GetPoolStats returns connection pool statistics for monitoring.
// Returns zero values if the database instance doesn't support pool statistics.
func (s *Service) GetPoolStats() dbkit.PoolStats {
	if db, ok := s.db.(*dbkit.DBKit); ok {
		return dbkit.PoolStatsFromSQL(db.Stats())
	}
	return dbkit.PoolStats{}
}

// Ping performs a basic connectivity test to the database.
func (s *Service) Ping(ctx context.Context) error {
	var one int
	return s.db.NewRaw("SELECT 1").Scan(ctx, &one)
}
