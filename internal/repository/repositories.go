package repository

// Repositories is a container for all repository instances.
type Repositories struct {
	Produto *ProdutoRepository
}

// NewRepositories constructs the repository container.
//
// Repositories hold no connection of their own; the session is passed
// on every call.
func NewRepositories() *Repositories {
	return &Repositories{
		Produto: NewProdutoRepository(),
	}
}
