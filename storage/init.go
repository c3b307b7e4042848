package storage

import (
	"Podyom/storage/database"
	"Podyom/storage/mq"
	"Podyom/storage/redis"
)

// Init brings up every storage backend in dependency order.
func Init() error {
	if err := database.Init(); err != nil {
		return err
	}

	if err := redis.Init(); err != nil {
		return err
	}

	if err := mq.Init(); err != nil {
		return err
	}

	return nil
}
