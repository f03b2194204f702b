package cache

import (
	"fmt"
	"strings"
)

const redisKeyPrefix = "gsc"

// NewRemoteStore builds the optional second tier from a connection string:
// redis://, rediss:// or bolt://<path>. An empty string means no remote tier.
func NewRemoteStore(connection string) (Store, error) {
	connection = strings.TrimSpace(connection)
	switch {
	case connection == "":
		return nil, nil
	case strings.HasPrefix(connection, "redis://"), strings.HasPrefix(connection, "rediss://"):
		store, err := NewRedisStore(connection, redisKeyPrefix)
		if err != nil {
			return nil, err
		}
		return store, nil
	case strings.HasPrefix(connection, "bolt://"):
		path := strings.TrimPrefix(connection, "bolt://")
		if path == "" {
			return nil, fmt.Errorf("bolt connection string has no path")
		}
		store, err := NewBoltStore(path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported cache connection string scheme: %q", connection)
	}
}
