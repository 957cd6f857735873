package types

// CatalogSource looks up catalog nodes. Implementations are read-only during a
// cognition cycle and safe for concurrent reads.
type CatalogSource interface {
	GetCatalogNode(key string) (CatalogNode, error)
	GetCatalogNodes() []CatalogNode
}

// NodeCodeSource exposes the static metadata declared by node codes.
type NodeCodeSource interface {
	Descriptors(nodeCodeKey string) ([]ConfigDescriptor, error)
	Results(nodeCodeKey string) ([]ResultDescription, error)
}

// ProcessSource resolves registered processes.
type ProcessSource interface {
	Build(key string) (*Process, error)
	All() []*Process
}
