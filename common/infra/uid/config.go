package uid

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	_ "github.com/spf13/viper/remote"
)

const (
	Static      = 1
	Coordinated = 2
)

// DefaultEpoch 2016-12-01 00:00:00 +08:00
const DefaultEpoch int64 = 1480521600000

type StaticConfig struct {
	WorkerId int64
}

type CoordinatedConfig struct {
	// etcd地址
	EtcdAddr []string
	// 同一命名空间下的节点共享workerId空间，上限1024个
	Namespace   string
	DialTimeout time.Duration
	// 会话超时，单位秒，进程异常退出后节点在该时间后被删除
	SessionTTL int64
}

type LogConfig struct {
	// 为空时输出到stderr
	Path  string
	Level string
}

type Config struct {
	// 服务名称，写入日志
	Name        string
	Model       int
	Epoch       int64
	MaxSpin     int
	Static      StaticConfig
	Coordinated CoordinatedConfig
	Log         LogConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("name", "uid")
	v.SetDefault("model", Static)
	v.SetDefault("epoch", DefaultEpoch)
	v.SetDefault("maxspin", 0)
	v.SetDefault("static.workerid", 0)
	v.SetDefault("coordinated.etcdaddr", []string{"127.0.0.1:2379"})
	v.SetDefault("coordinated.namespace", "/butterfly/uid/worker")
	v.SetDefault("coordinated.dialtimeout", 5*time.Second)
	v.SetDefault("coordinated.sessionttl", 60)
	v.SetDefault("log.path", "")
	v.SetDefault("log.level", "info")
}

// LoadConfig 读取yaml/json配置文件，UID_前缀的环境变量覆盖文件中的值
// 如UID_COORDINATED_NAMESPACE覆盖coordinated.namespace，列表以逗号分隔，path为空时只使用默认值和环境变量
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("UID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}
	return unmarshal(v)
}

// ReadRemoteConfig 在etcd中读取yaml配置
func ReadRemoteConfig(addr string, path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	err := v.AddRemoteProvider("etcd3", addr, path)
	if err != nil {
		return Config{}, err
	}
	err = v.ReadRemoteConfig()
	if err != nil {
		return Config{}, err
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (Config, error) {
	cf := Config{}
	if err := v.Unmarshal(&cf); err != nil {
		return Config{}, err
	}
	return cf, nil
}
