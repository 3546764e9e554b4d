package figh

import (
	"gopkg.in/yaml.v3"
)

// Plan is a YAML-marshalable description of the resolved composition graph,
// useful for diffing generated output and for debugging misbehaving wiring.
// Its ordering follows the container's deterministic orders, so an unchanged
// registration model always yields an identical plan.
type Plan struct {
	Package      string        `yaml:"package"`
	Container    string        `yaml:"container"`
	NeedsContext bool          `yaml:"needs_context"`
	Nodes        []PlanNode    `yaml:"nodes"`
	Services     []PlanService `yaml:"services"`
}

// PlanNode describes one composition node.
type PlanNode struct {
	Type            string   `yaml:"type"`
	Identifier      string   `yaml:"identifier"`
	Strategy        string   `yaml:"strategy"`
	Lifetime        string   `yaml:"lifetime"`
	RequiresContext bool     `yaml:"requires_context"`
	DependsOn       []string `yaml:"depends_on,omitempty"`
}

// PlanService describes one entry of the externally visible service table.
type PlanService struct {
	Service string   `yaml:"service"`
	Entries []string `yaml:"entries"`
}

// Plan returns the plan of this container.
func (c *Container) Plan() *Plan {
	p := &Plan{
		Package:      c.pkgName,
		Container:    c.containerName,
		NeedsContext: c.needsCtx,
	}

	for _, node := range c.order {
		impl := node.implType()
		pn := PlanNode{
			Type:            impl.String(),
			Identifier:      c.names[impl],
			Strategy:        node.strategy(),
			Lifetime:        node.lifetime().String(),
			RequiresContext: c.ctxNeeded[impl],
		}
		for _, dep := range node.dependencies() {
			pn.DependsOn = append(pn.DependsOn, describeDep(dep))
		}
		p.Nodes = append(p.Nodes, pn)
	}

	for _, svc := range c.serviceOrder {
		ps := PlanService{Service: svc.String()}
		for _, node := range c.lookup[svc] {
			ps.Entries = append(ps.Entries, node.implType().String())
		}
		p.Services = append(p.Services, ps)
	}
	return p
}

func describeDep(dep *dependency) string {
	switch dep.kind {
	case depContext:
		return dep.site + ": context"
	case depDirect:
		return dep.site + ": " + dep.target.implType().String()
	case depCollection:
		return dep.site + ": all of " + dep.service.String()
	case depLazy:
		return dep.site + ": lazy " + dep.target.implType().String()
	}
	return dep.site + ": unknown"
}

// YAML marshals the plan.
func (p *Plan) YAML() ([]byte, error) {
	return yaml.Marshal(p)
}
