package awsivy

import "go.uber.org/zap"

// TypeName identifies this resolver to the host's resolver registry.
const TypeName = "S3"

// Resolver is the host-facing configuration surface of a Store.
type Resolver struct {
	name   string
	store  *Store
	logger *Logger
}

// NewResolver builds a Resolver and its Store from config. An unknown ACL in
// config is reported here rather than at upload time.
func NewResolver(config *Config, logger *Logger) (*Resolver, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	r := &Resolver{
		name:   config.Name,
		store:  NewStore(config, logger),
		logger: logger,
	}
	r.SetAccessKey(config.AccessKey)
	r.SetSecretKey(config.SecretKey)
	if config.ACL != "" {
		if err := r.SetACL(config.ACL); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Resolver) SetAccessKey(accessKey string) {
	r.logger.Debug("S3Resolver using accessKey", zap.String("access_key", accessKey))
	r.store.SetAccessKey(accessKey)
}

func (r *Resolver) SetSecretKey(secretKey string) {
	r.store.SetSecretKey(secretKey)
}

func (r *Resolver) SetACL(acl string) error {
	return r.store.SetACL(acl)
}

func (r *Resolver) AddTransferListener(l TransferListener) {
	r.store.AddTransferListener(l)
}

func (r *Resolver) Name() string { return r.name }

func (r *Resolver) SetName(name string) { r.name = name }

func (r *Resolver) TypeName() string { return TypeName }

func (r *Resolver) Repository() Repository { return r.store }
