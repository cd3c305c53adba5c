package utils

import (
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/event"
)

// MongoPoolStats is a point-in-time view of the driver's connection pool.
type MongoPoolStats struct {
	CheckedOut         int64     `json:"checked_out"`
	CreatedConnections int64     `json:"created_connections"`
	ClosedConnections  int64     `json:"closed_connections"`
	LastCheckTime      time.Time `json:"last_check_time"`
}

var poolStats struct {
	checkedOut int64
	created    int64
	closed     int64
}

// MongoPoolMonitor feeds MongoPoolStats from driver pool events.
func MongoPoolMonitor() *event.PoolMonitor {
	return &event.PoolMonitor{
		Event: func(e *event.PoolEvent) {
			switch e.Type {
			case event.ConnectionCreated:
				atomic.AddInt64(&poolStats.created, 1)
			case event.ConnectionClosed:
				atomic.AddInt64(&poolStats.closed, 1)
			case event.GetSucceeded:
				atomic.AddInt64(&poolStats.checkedOut, 1)
			case event.ConnectionReturned:
				atomic.AddInt64(&poolStats.checkedOut, -1)
			}
		},
	}
}

func GetMongoPoolStats() MongoPoolStats {
	return MongoPoolStats{
		CheckedOut:         atomic.LoadInt64(&poolStats.checkedOut),
		CreatedConnections: atomic.LoadInt64(&poolStats.created),
		ClosedConnections:  atomic.LoadInt64(&poolStats.closed),
		LastCheckTime:      time.Now(),
	}
}
