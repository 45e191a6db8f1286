package services

import (
	"github.com/samber/do"
)

// ProvideServices registers every service constructor. The injector must already provide
// interfaces.Store, interfaces.Locker, interfaces.Limiter, the caches, *verifier.Registry
// and *TelegramAuth.
func ProvideServices(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*ServiceConfig, error) {
		return NewServiceConfig(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceQuest, error) {
		return NewServiceQuest(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceUser, error) {
		return NewServiceUser(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceCompletion, error) {
		return NewServiceCompletion(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceLedger, error) {
		return NewServiceLedger(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceVerification, error) {
		return NewServiceVerification(i)
	})
}
