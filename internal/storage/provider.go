package storage

import "cgiad/internal/ports"

// Provider is the storage contract shared by the asset and artifact stores.
type Provider = ports.StorageProvider
