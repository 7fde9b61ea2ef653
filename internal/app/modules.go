package app

import (
	"github.com/vk/bowergrid/internal/registry"
	"github.com/vk/bowergrid/modules/bower"
)

// coreModules is the definitive list of all modules that are compiled into
// the bowergrid binary.
var coreModules = []registry.Module{
	&bower.Module{},
}
