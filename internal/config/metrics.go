// SPDX-License-Identifier: MIT

package config

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "siteconf_loads_total",
		Help: "Configuration load attempts per domain by outcome",
	}, []string{"domain", "outcome"}) // outcome=success|fallback|retained

	coercionFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "siteconf_coercion_fallbacks_total",
		Help: "Leaves replaced by their domain default during coercion",
	}, []string{"domain"})

	templateWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "siteconf_template_writes_total",
		Help: "Default template files written for absent domains",
	})

	watcherReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "siteconf_watcher_reloads_total",
		Help: "Watcher-triggered reloads per domain by outcome",
	}, []string{"domain", "outcome"}) // outcome=success|failure
)
