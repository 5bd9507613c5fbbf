package service

import (
	"time"

	"github.com/expanders360/vendormatch/internal/adapters/mq/worker"
	"github.com/expanders360/vendormatch/internal/adapters/repository"
	"github.com/expanders360/vendormatch/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDBPath sets the SQLite database file.
func WithDBPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dbPath = path
		}
	}
}

// WithStore injects an already opened store. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithStoreTimeout bounds each store call.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

// WithNotifyQueueSize sets the capacity of the notification queue.
func WithNotifyQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithNotifyWorkers sets the number of delivery workers.
func WithNotifyWorkers(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithNotifyAddresses sets the admin and sender addresses.
func WithNotifyAddresses(admin, from string) Option {
	return func(s *Service) {
		s.adminEmail = admin
		s.fromEmail = from
	}
}

// WithNATS enables NATS delivery.
func WithNATS(url, subjectPrefix string) Option {
	return func(s *Service) {
		s.natsURL = url
		s.natsPrefix = subjectPrefix
	}
}

// WithSender overrides the notification transport.
func WithSender(sender worker.Sender) Option {
	return func(s *Service) {
		if sender != nil {
			s.sender = sender
		}
	}
}

// WithScheduler configures the cron jobs. Empty specs keep the defaults.
func WithScheduler(enabled bool, dailyRefresh, slaScan string, loc *time.Location) Option {
	return func(s *Service) {
		s.schedulerEnabled = enabled
		if dailyRefresh != "" {
			s.dailyRefreshSpec = dailyRefresh
		}
		if slaScan != "" {
			s.slaScanSpec = slaScan
		}
		if loc != nil {
			s.location = loc
		}
	}
}

// WithSLALookback limits the SLA scan to matches newer than d.
func WithSLALookback(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.slaLookback = d
		}
	}
}

// WithAnalyticsWindow sets the top-vendor analytics window.
func WithAnalyticsWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.analyticsWindow = d
		}
	}
}

// WithClock injects the time source used by the SLA scan and analytics.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
