package config

import "time"

// Storage backends
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Defaults applied when the corresponding variable is unset
const (
	DefaultPort                = 8080
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "text"
	DefaultEnvironment         = "dev"
	DefaultServiceName         = "brick-manager"
	DefaultVersion             = "dev"
	DefaultDBName              = "brickmanager"
	DefaultDBMaxConns          = 10
	DefaultRebrickableBaseURL  = "https://rebrickable.com/api/v3/lego"
	DefaultRebrickablePageSize = 1000
	DefaultRebrickableUsersURL = "https://rebrickable.com/api/v3/users"
	DefaultRebrickableRPS      = 1.0
	DefaultSyncPageTimeout     = 30 * time.Second
	DefaultSyncWorkers         = 3
	DefaultImageCacheDir       = "cache/images"
	DefaultImageFallback       = "/static/img/no_image.png"
)

// MaxPort is the largest valid TCP port
const MaxPort = 65535
