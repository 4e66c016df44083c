package api

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"walrus/cmd/internal/auth"
	"walrus/cmd/internal/validate"
)

// Metrics counts auth outcomes. Label values are error kinds, never
// user-supplied data.
type Metrics struct {
	Logins      *prometheus.CounterVec
	Refreshes   *prometheus.CounterVec
	Resolutions *prometheus.CounterVec
}

// NewMetrics registers the auth counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walrus",
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		Refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walrus",
			Subsystem: "auth",
			Name:      "refreshes_total",
			Help:      "Session refresh attempts by outcome.",
		}, []string{"outcome"}),
		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walrus",
			Subsystem: "auth",
			Name:      "token_resolutions_total",
			Help:      "Access token resolutions by outcome.",
		}, []string{"outcome"}),
	}
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, auth.ErrBadCredentials),
		errors.Is(err, auth.ErrTokenNotFound),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrExpired),
		validate.IsValidation(err):
		return "denied"
	case errors.Is(err, auth.ErrInterrupted):
		return "interrupted"
	default:
		return "error"
	}
}
