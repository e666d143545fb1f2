package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/modules/logging"
	"github.com/vk/flowgridgo/modules/metrics"
	"github.com/vk/flowgridgo/modules/table"
)

// coreModules returns the built-in modules registered when the caller does
// not supply its own set.
func coreModules() []registry.Module {
	return []registry.Module{
		&logging.Module{},
		metrics.New(prometheus.DefaultRegisterer),
		&table.Module{},
	}
}
