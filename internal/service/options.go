package service

import (
	"errors"
	"time"
)

type Option func(*NotifyService)

func WithCache(cache NotificationCache) Option {
	return func(s *NotifyService) {
		if cache != nil {
			s.cache = cache
		}
	}
}

func WithDeliveryObserver(observer DeliveryObserver) Option {
	return func(s *NotifyService) {
		if observer != nil {
			s.observer = observer
		}
	}
}

func WithSlowThreshold(threshold time.Duration) Option {
	return func(s *NotifyService) {
		if threshold > 0 {
			s.slowThreshold = threshold
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *NotifyService) {
		if now != nil {
			s.now = now
		}
	}
}

func (s *NotifyService) validate() error {
	if s.repo == nil {
		return errors.New("invalid notify repository: must be non-nil")
	}
	if s.salesNotes == nil {
		return errors.New("invalid sales note repository: must be non-nil")
	}
	if s.tm == nil {
		return errors.New("invalid transaction manager: must be non-nil")
	}
	if s.gateway == nil {
		return errors.New("invalid gateway: must be non-nil")
	}
	if s.log == nil {
		return errors.New("invalid logger: must be non-nil")
	}
	return nil
}
