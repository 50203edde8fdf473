package config

// NewTemplatesForTest creates a Templates config for testing purposes
func NewTemplatesForTest(path string) *Templates {
	return &Templates{path: path}
}

// NewStoreForTest creates a Store config for testing purposes
func NewStoreForTest(backend, redisAddr string) *Store {
	return &Store{backend: backend, redisAddr: redisAddr}
}
