// Package mocks holds generated gomock doubles for the module's interfaces.
// Regenerate with go generate after changing an interface.
package mocks

//go:generate mockgen -destination=./mock_venue.go -package=mocks github.com/rxtech-lab/argo-pilot/internal/venue Venue
