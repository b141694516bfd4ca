package app

import (
	"fmt"
	"time"

	"Gin_postgres_redis_inventory/db"
	"Gin_postgres_redis_inventory/logs"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// TouchLastSeen updates the operator's last_seen_at at most once per
// throttle.
func TouchLastSeen(repo *db.Repo, rdb *redis.Client, throttle time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid := OperatorID(c)
		if oid == 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf("inv:lastseen:%d", oid)
		if ok, _ := rdb.SetNX(c, key, "1", throttle).Result(); ok {
			if err := repo.TouchOperatorSeen(c, oid); err != nil {
				logs.Logger.WithError(err).WithField("operator", oid).Warn("touch last seen")
			}
		}
		c.Next()
	}
}
