package handler

import (
	"go.uber.org/fx"
)

const (
	// GroupName is the fx value group that collects batch operation handlers.
	GroupName = "operationHandlers"
	// NodeGroupName is the fx value group that collects workflow node handlers.
	NodeGroupName = "nodeHandlers"
)

// NodeRegistry resolves workflow node types. Node type names overlap operation
// names ("merge"), so nodes are registered apart from operations.
type NodeRegistry struct {
	Registry
}

// RegistryParams receives every Entry contributed to the operationHandlers group.
type RegistryParams struct {
	fx.In
	Entries []Entry `group:"operationHandlers"`
}

// NodeRegistryParams receives every Entry contributed to the nodeHandlers group.
type NodeRegistryParams struct {
	fx.In
	Entries []Entry `group:"nodeHandlers"`
}

// NewRegistryFromParams builds the operation registry from the fx value group.
func NewRegistryFromParams(p RegistryParams) (Registry, error) {
	return NewRegistry(p.Entries...)
}

// NewNodeRegistryFromParams builds the node registry from the fx value group.
func NewNodeRegistryFromParams(p NodeRegistryParams) (*NodeRegistry, error) {
	reg, err := NewRegistry(p.Entries...)
	if err != nil {
		return nil, err
	}
	return &NodeRegistry{Registry: reg}, nil
}

// AsEntry annotates a constructor returning Entry so that its result joins the
// operationHandlers group.
func AsEntry(constructor interface{}) interface{} {
	return fx.Annotate(constructor, fx.ResultTags(`group:"operationHandlers"`))
}

// AsNodeEntry annotates a constructor returning Entry so that its result joins the
// nodeHandlers group.
func AsNodeEntry(constructor interface{}) interface{} {
	return fx.Annotate(constructor, fx.ResultTags(`group:"nodeHandlers"`))
}

// Supply contributes an already constructed operation handler under name.
func Supply(name string, h Handler) fx.Option {
	return fx.Provide(AsEntry(func() Entry { return Entry{Name: name, Handler: h} }))
}

// SupplyNode contributes an already constructed node handler under nodeType.
func SupplyNode(nodeType string, h Handler) fx.Option {
	return fx.Provide(AsNodeEntry(func() Entry { return Entry{Name: nodeType, Handler: h} }))
}

// Module provides the operation Registry and the NodeRegistry.
var Module = fx.Options(
	fx.Provide(NewRegistryFromParams),
	fx.Provide(NewNodeRegistryFromParams),
)
