package mocks

//go:generate mockgen -destination=./mock_venue.go -package=mocks github.com/jeden-/agent-mt5/internal/venue Venue
