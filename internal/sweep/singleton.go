package sweep

import (
	"sync"
	"time"

	"Podyom/config"
	"Podyom/internal/service"
	"Podyom/storage/database"
)

var (
	penaltyOnce sync.Once
	penaltySwp  *PenaltySweep

	subscriptionOnce sync.Once
	subscriptionSwp  *SubscriptionSweep
)

func GetPenaltySweep() *PenaltySweep {
	penaltyOnce.Do(func() {
		penaltySwp = NewPenaltySweep(
			database.DB(),
			service.QueueNotifier{},
			service.GetBuddyService(),
			time.Duration(config.Cfg.SweepSendDelayMs)*time.Millisecond,
			config.Cfg.SweepErrorSampleMax,
		)
	})
	return penaltySwp
}

func GetSubscriptionSweep() *SubscriptionSweep {
	subscriptionOnce.Do(func() {
		subscriptionSwp = NewSubscriptionSweep(
			database.DB(),
			service.GetAccessService(),
			service.QueueNotifier{},
			service.GetMessenger(),
			time.Duration(config.Cfg.SweepSendDelayMs)*time.Millisecond,
			config.Cfg.SweepErrorSampleMax,
		)
	})
	return subscriptionSwp
}
