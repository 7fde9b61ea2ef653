package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/bowergrid/internal/config"
	"github.com/vk/bowergrid/internal/ctxlog"
	"github.com/vk/bowergrid/internal/dag"
)

// ValidateRegistry checks that every alias refers only to registered tasks,
// that no alias names a target of another alias, and that aliases do not
// expand into themselves.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	graph := dag.New()
	for _, name := range r.Names() {
		graph.AddNode(name)
	}

	for _, name := range r.Names() {
		def := r.defs[name]
		if def.Kind != KindAlias {
			continue
		}
		if len(def.Tasks) == 0 {
			logger.Warn("Alias has an empty body and will do nothing.", "alias", name)
		}
		for _, ref := range def.Tasks {
			task, target, _, err := config.ParseRef(ref)
			if err != nil {
				errs = append(errs, fmt.Sprintf("alias '%s': %v", name, err))
				continue
			}
			refDef, ok := r.defs[task]
			if !ok {
				errs = append(errs, fmt.Sprintf("alias '%s': task '%s' is not registered", name, task))
				continue
			}
			if refDef.Kind == KindAlias && target != "" {
				errs = append(errs, fmt.Sprintf("alias '%s': '%s' refers to a target of alias '%s'", name, ref, task))
			}
			if err := graph.AddEdge(task, name); err != nil {
				errs = append(errs, fmt.Sprintf("alias '%s': %v", name, err))
			}
		}
	}
	if err := graph.DetectCycles(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
