package dal

import (
	"sync"
)

// ConnectionPool manages a small pool of Couchbase connections shared by
// request handlers.
type ConnectionPool struct {
	connections chan *Connection
	maxSize     int
}

var (
	pool     *ConnectionPool
	poolOnce sync.Once
)

// GetConnOrGenConn gets a connection from the pool or creates a new one
func GetConnOrGenConn() (*Connection, error) {
	poolOnce.Do(func() {
		pool = &ConnectionPool{
			connections: make(chan *Connection, 5),
			maxSize:     5,
		}
	})

	select {
	case conn := <-pool.connections:
		if conn != nil && conn.cluster != nil {
			return conn, nil
		}
		return NewConnection()
	default:
		// Pool is empty, create new connection
		return NewConnection()
	}
}

// ReturnConnection returns a connection to the pool
func ReturnConnection(conn *Connection) {
	if conn == nil || conn.cluster == nil {
		return
	}

	select {
	case pool.connections <- conn:
	default:
		// Pool is full, discard connection
		conn.Close()
	}
}
