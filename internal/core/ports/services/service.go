package services

// ServiceContainer holds instances of all the application services.
// It is used throughout the application, particularly in the handlers.
type ServiceContainer struct {
	Reconciliation ReconciliationSvcFacade
	ReferenceRate  ReferenceRateSvcFacade // Nil when no database is configured
}
