package repository

import "omnipost/domain/model"

// IMetrics records connection and publish outcomes.
type IMetrics interface {
	ObserveConnection(platform model.PlatformID, stage string, err error)
	ObserveAttempts(attempts []model.PostAttempt)
}
