package storage

import (
	"context"
	"io"
)

// Storage 生成资源存储接口
// 图片生成的落盘产物通过它发布，方便在本地文件系统与对象存储之间切换
type Storage interface {
	// Save 保存资源并返回可访问的URL
	Save(ctx context.Context, key string, data io.Reader, contentType string) (string, error)

	// Exists 检查资源是否存在（/ready 用它探测后端可达性）
	Exists(ctx context.Context, key string) (bool, error)

	// Type 获取存储类型
	Type() string
}

// StorageType 存储类型
type StorageType string

const (
	StorageTypeLocal StorageType = "local" // 本地文件系统
	StorageTypeOSS   StorageType = "oss"   // 阿里云OSS
)
