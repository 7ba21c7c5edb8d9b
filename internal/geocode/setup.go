package geocode

import (
	"log"

	"github.com/redis/go-redis/v9"
)

// Init wires the default client. The redis URL is optional; when it is
// empty or unparsable the client runs uncached.
func Init(cfg Config, redisURL string) {
	var cache *redis.Client
	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Printf("[geocode] invalid redis URL, caching disabled: %v", err)
		} else {
			cache = redis.NewClient(opts)
		}
	} else {
		log.Println("[geocode] redis not configured, caching disabled")
	}

	DefaultClient = NewClient(cfg, cache)
}
