package service

import (
	"sync"
	"time"

	"Podyom/config"
	"Podyom/internal/cache"
	"Podyom/pkg/curator"
	"Podyom/pkg/messenger"
	"Podyom/storage/database"
	"Podyom/storage/redis"
)

// Production wiring. Constructors stay injectable for tests; these
// singletons are what the binaries use.

var (
	admissionOnce sync.Once
	admissionSvc  *AdmissionService

	accessOnce sync.Once
	accessSvc  *AccessService

	participationOnce sync.Once
	participationSvc  *ParticipationService

	buddyOnce sync.Once
	buddySvc  *BuddyService

	messengerOnce   sync.Once
	messengerClient messenger.Client
)

// GetMessenger returns the shared messaging gateway. Without a bot
// token the mock sink is used so local development works offline.
func GetMessenger() messenger.Client {
	messengerOnce.Do(func() {
		if config.Cfg.BotToken == "" {
			messengerClient = messenger.NewMock()
			return
		}
		messengerClient = messenger.NewTelegramClient(
			config.Cfg.BotAPIBase,
			config.Cfg.BotToken,
			time.Duration(config.Cfg.BotTimeout)*time.Second,
		)
	})
	return messengerClient
}

func GetAdmissionService() *AdmissionService {
	admissionOnce.Do(func() {
		var cur curator.Client = curator.Disabled{}
		if config.Cfg.CuratorURL != "" {
			cur = curator.NewHTTPClient(
				config.Cfg.CuratorURL,
				time.Duration(config.Cfg.CuratorTimeoutSeconds)*time.Second,
			)
		}

		admissionSvc = NewAdmissionService(
			database.DB(),
			cache.NewRedisDedup(redis.Client()),
			QueueNotifier{},
			cur,
			config.Cfg.DefaultTimezone,
		)
	})
	return admissionSvc
}

func GetAccessService() *AccessService {
	accessOnce.Do(func() {
		accessSvc = NewAccessService(database.DB(), QueueNotifier{})
	})
	return accessSvc
}

func GetParticipationService() *ParticipationService {
	participationOnce.Do(func() {
		participationSvc = NewParticipationService(database.DB())
	})
	return participationSvc
}

func GetBuddyService() *BuddyService {
	buddyOnce.Do(func() {
		buddySvc = NewBuddyService(database.DB(), QueueNotifier{}, GetMessenger())
	})
	return buddySvc
}
