// SPDX-License-Identifier: MIT

// Package domains declares the fixed configuration domains of the donation
// site: statistics counters, site content and application settings. Each
// descriptor carries a fully populated default tree and the expected leaf
// types; the config core falls back to these defaults whenever a backing
// file is absent, malformed or carries a leaf of the wrong type.
package domains

import (
	"github.com/groveworks/siteconf/internal/config"
	"github.com/groveworks/siteconf/internal/tree"
)

// PayPalBusinessID is the merchant identifier donations are routed to.
const PayPalBusinessID = "73PLJSAMMTSCW"

// Statistics describes the planting counters shown on the site.
func Statistics() config.Domain {
	return config.Domain{
		Name: "statistics",
		Defaults: tree.FromGo(map[string]any{
			"update_frequency": 30,
			"last_updated":     "",
			"statistics": map[string]any{
				"trees_planted": map[string]any{
					"label":  "Trees planted",
					"value":  0,
					"icon":   "tree.svg",
					"format": "%d",
				},
				"hectares_restored": map[string]any{
					"label":  "Hectares restored",
					"value":  0,
					"icon":   "hectare.svg",
					"format": "%.1f",
				},
				"co2_offset": map[string]any{
					"label":  "CO2 offset (tonnes)",
					"value":  0,
					"icon":   "co2.svg",
					"format": "%.1f",
				},
			},
		}),
		Schema: config.Schema{
			"update_frequency":                    config.TypeNumber,
			"last_updated":                        config.TypeString,
			"statistics.trees_planted.label":      config.TypeString,
			"statistics.trees_planted.value":      config.TypeNumber,
			"statistics.trees_planted.icon":       config.TypeString,
			"statistics.trees_planted.format":     config.TypeString,
			"statistics.hectares_restored.label":  config.TypeString,
			"statistics.hectares_restored.value":  config.TypeNumber,
			"statistics.hectares_restored.icon":   config.TypeString,
			"statistics.hectares_restored.format": config.TypeString,
			"statistics.co2_offset.label":         config.TypeString,
			"statistics.co2_offset.value":         config.TypeNumber,
			"statistics.co2_offset.icon":          config.TypeString,
			"statistics.co2_offset.format":        config.TypeString,
		},
	}
}

// Content describes site copy, tab labels and the donation form.
func Content() config.Domain {
	return config.Domain{
		Name: "content",
		Defaults: tree.FromGo(map[string]any{
			"site": map[string]any{
				"title":   "Grove",
				"tagline": "Every donation plants trees",
			},
			"tabs": map[string]any{
				"about":      "About",
				"donate":     "Donate",
				"statistics": "Our impact",
			},
			"paypal": map[string]any{
				"business_id": PayPalBusinessID,
				"currency":    "EUR",
				"amounts":     []any{5, 10, 25, 50},
			},
			"copy": map[string]any{
				"intro":  "We restore degraded land, one grove at a time.",
				"footer": "Thank you for planting with us.",
			},
		}),
		Schema: config.Schema{
			"site.title":         config.TypeString,
			"site.tagline":       config.TypeString,
			"tabs.about":         config.TypeString,
			"tabs.donate":        config.TypeString,
			"tabs.statistics":    config.TypeString,
			"paypal.business_id": config.TypeString,
			"paypal.currency":    config.TypeString,
			"paypal.amounts":     config.TypeAny,
			"copy.intro":         config.TypeString,
			"copy.footer":        config.TypeString,
		},
	}
}

// Settings describes app metadata, theme tokens and API client tuning.
func Settings() config.Domain {
	return config.Domain{
		Name: "settings",
		Defaults: tree.FromGo(map[string]any{
			"app": map[string]any{
				"name":    "grove-site",
				"version": "1.0.0",
			},
			"theme": map[string]any{
				"primary":    "#2f6f4f",
				"accent":     "#d9a441",
				"background": "#f7f4ec",
			},
			"api": map[string]any{
				"poll_interval": 1000,
				"timeout":       5000,
				"retries":       3,
			},
		}),
		Schema: config.Schema{
			"app.name":          config.TypeString,
			"app.version":       config.TypeString,
			"theme.primary":     config.TypeString,
			"theme.accent":      config.TypeString,
			"theme.background":  config.TypeString,
			"api.poll_interval": config.TypeNumber,
			"api.timeout":       config.TypeNumber,
			"api.retries":       config.TypeNumber,
		},
	}
}

// All returns the descriptors for every fixed domain.
func All() []config.Domain {
	return []config.Domain{Statistics(), Content(), Settings()}
}
