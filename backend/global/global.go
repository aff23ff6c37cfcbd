package global

import (
	"pollhub/backend/config"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var (
	Config config.Config
	// Logger is a no-op until initialize.InitLogger runs.
	Logger = zerolog.Nop()
	Mdb    *gorm.DB
	Rdb    *redis.Client
)
