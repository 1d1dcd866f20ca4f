package observability

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

// Domain event labels for DomainEvents.
const (
	EventSignup         = "signup"
	EventLoginSucceeded = "login_succeeded"
	EventLoginFailed    = "login_failed"
	EventAccountDeleted = "account_deleted"
	EventPostCreated    = "post_created"
	EventPostDeleted    = "post_deleted"
	EventFollow         = "follow"
	EventUnfollow       = "unfollow"
	EventLike           = "like"
	EventUnlike         = "unlike"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "warbler_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// DomainEvents counts account, post and graph transitions.
	DomainEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_domain_events_total",
		Help: "Total number of domain events by type",
	}, []string{"event"})
)

// RecordEvent increments the counter for a domain event.
func RecordEvent(event string) {
	DomainEvents.WithLabelValues(event).Inc()
}

const queryStartKey = "metrics:query_start"

// InstrumentGorm registers callbacks that observe DatabaseQueryLatency for every statement.
func InstrumentGorm(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("metrics:before_create", startQueryTimer),
		cb.Create().After("gorm:create").Register("metrics:after_create", observeQuery("create")),
		cb.Query().Before("gorm:query").Register("metrics:before_query", startQueryTimer),
		cb.Query().After("gorm:query").Register("metrics:after_query", observeQuery("query")),
		cb.Update().Before("gorm:update").Register("metrics:before_update", startQueryTimer),
		cb.Update().After("gorm:update").Register("metrics:after_update", observeQuery("update")),
		cb.Delete().Before("gorm:delete").Register("metrics:before_delete", startQueryTimer),
		cb.Delete().After("gorm:delete").Register("metrics:after_delete", observeQuery("delete")),
		cb.Row().Before("gorm:row").Register("metrics:before_row", startQueryTimer),
		cb.Row().After("gorm:row").Register("metrics:after_row", observeQuery("row")),
		cb.Raw().Before("gorm:raw").Register("metrics:before_raw", startQueryTimer),
		cb.Raw().After("gorm:raw").Register("metrics:after_raw", observeQuery("raw")),
	)
}

func startQueryTimer(tx *gorm.DB) {
	tx.InstanceSet(queryStartKey, time.Now())
}

func observeQuery(op string) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		v, ok := tx.InstanceGet(queryStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		table := tx.Statement.Table
		if table == "" {
			table = "unknown"
		}
		DatabaseQueryLatency.WithLabelValues(op, table).Observe(time.Since(start).Seconds())
	}
}
