package storage

// Storage 配置数据存储接口
type Storage interface {
	// Sub 获取子配置存储对象
	Sub(key string) Storage

	// ConvertTo 将配置数据绑定到 object，object 必须是非空指针
	ConvertTo(object any) error
}
