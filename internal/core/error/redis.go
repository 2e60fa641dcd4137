package errx

import (
	"errors"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// WrapRedis maps Redis errors to an AppError. A missing key is reported as
// not-found; everything else is a transport failure against local storage.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, redis.Nil) {
		return &AppError{Err: err, Kind: KindTransport, Status: http.StatusNotFound, Message: RedisNotFoundMessage, Key: "storage.not_found"}
	}

	return &AppError{Err: err, Kind: KindTransport, Status: http.StatusBadGateway, Message: RedisErrorMessage, Key: "storage.failed"}
}

// ErrNotFound matches any storage lookup for a key that does not exist,
// whether the store is Redis or in memory.
var ErrNotFound = &AppError{Kind: KindTransport, Status: http.StatusNotFound, Message: RedisNotFoundMessage, Key: "storage.not_found"}
