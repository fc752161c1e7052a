package storagefactory

import (
	"fmt"

	"seequence/internal/config"
	"seequence/internal/pkg/storage"
	"seequence/internal/pkg/storage/local"
	"seequence/internal/pkg/storage/oss"
)

// NewStorage 根据配置创建存储实例
func NewStorage(cfg *config.StorageConfig) (storage.Storage, error) {
	switch storage.StorageType(cfg.Type) {
	case storage.StorageTypeLocal:
		if cfg.Local == nil {
			return nil, fmt.Errorf("local storage config is required")
		}
		return local.NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL)

	case storage.StorageTypeOSS:
		if cfg.OSS == nil {
			return nil, fmt.Errorf("oss storage config is required")
		}
		return oss.NewOSSStorage(
			cfg.OSS.Endpoint,
			cfg.OSS.Bucket,
			cfg.OSS.AccessKeyID,
			cfg.OSS.AccessKeySecret,
		)

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
