package services

import "github.com/yigit/electives/internal/app/repositories"

// Services holds all the service instances
type Services struct {
	AllocationService AllocationService
	SettingsService   SettingsService
	SubjectService    SubjectService
}

// NewServices initializes all services on one store
func NewServices(store repositories.AllocationStore, opts ...AllocationOption) *Services {
	return &Services{
		AllocationService: NewAllocationService(store, opts...),
		SettingsService:   NewSettingsService(store),
		SubjectService:    NewSubjectService(store),
	}
}
