package awsivy

// Repository is what a dependency resolver needs from an artifact store.
type Repository interface {
	Resolve(uri string) (*Resource, error)
	Download(source, destination string) error
	Upload(source, destination string, overwrite bool) error
	List(parent string) ([]string, error)
	Exists(uri string) (bool, error)
}
