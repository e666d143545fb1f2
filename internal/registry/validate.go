package registry

import (
	"fmt"

	"github.com/vk/flowgridgo/internal/config"
)

// ValidateModel checks that every node in the model references a registered
// runner type. Run before graph construction so a typo fails fast with a
// clear message instead of surfacing mid-flow.
func (r *Registry) ValidateModel(model *config.Model) error {
	if model == nil || model.Flow == nil {
		return fmt.Errorf("model contains no flow definition")
	}
	for _, node := range model.Flow.Nodes {
		if _, ok := r.runners[node.RunnerType]; !ok {
			return fmt.Errorf("node %q references unknown runner type %q", node.Name, node.RunnerType)
		}
	}
	return nil
}
