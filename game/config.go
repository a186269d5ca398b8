package game

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kevin-chtw/tw_hkmj/bot"
	"github.com/kevin-chtw/tw_hkmj/utils"
	"github.com/spf13/viper"
	"github.com/topfreegames/pitaya/v3/pkg/logger"
)

// DelayConf 机器人的思考时间，单位毫秒
type DelayConf struct {
	Draw    int `mapstructure:"draw"`    // 摸牌后到出牌
	Turn    int `mapstructure:"turn"`    // 轮到后到摸牌
	Claim   int `mapstructure:"claim"`   // 响应别人的牌
	Resolve int `mapstructure:"resolve"` // 响应结束后到下一手
}

type BotConf struct {
	Level string    `mapstructure:"level"`
	Delay DelayConf `mapstructure:"delay"`
	Cache int64     `mapstructure:"cache"`
}

type RoomConf struct {
	Max int `mapstructure:"max"`
}

type ManualConf struct {
	Dir  string `mapstructure:"dir"`
	Name string `mapstructure:"name"`
}

type HttpConf struct {
	Addr string `mapstructure:"addr"`
}

// ClusterConf 不启用时单机运行，不连etcd
type ClusterConf struct {
	Enable      bool     `mapstructure:"enable"`
	Frontend    bool     `mapstructure:"frontend"`
	Endpoints   []string `mapstructure:"endpoints"`
	Prefix      string   `mapstructure:"prefix"`
	DialTimeout int      `mapstructure:"dial_timeout"` // 秒
	LeaseTTL    int      `mapstructure:"lease_ttl"`    // 秒
}

// Conf etc/hkmj.yaml
type Conf struct {
	Bot     BotConf       `mapstructure:"bot"`
	Room    RoomConf      `mapstructure:"room"`
	Manual  ManualConf    `mapstructure:"manual"`
	Http    HttpConf      `mapstructure:"http"`
	Log     utils.LogConf `mapstructure:"log"`
	Cluster ClusterConf   `mapstructure:"cluster"`
	Listen  string        `mapstructure:"listen"`
}

// Config 可热更新的配置，读写都要加锁
type Config struct {
	mu   sync.RWMutex
	conf Conf
	vp   *viper.Viper
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.level", "medium")
	v.SetDefault("bot.delay.draw", 800)
	v.SetDefault("bot.delay.turn", 1000)
	v.SetDefault("bot.delay.claim", 1500)
	v.SetDefault("bot.delay.resolve", 500)
	v.SetDefault("bot.cache", 10000)
	v.SetDefault("room.max", 1000)
	v.SetDefault("manual.dir", "initcard")
	v.SetDefault("manual.name", "default")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("log.dir", "./logs")
	v.SetDefault("log.level", "info")
	v.SetDefault("listen", ":3250")
	v.SetDefault("cluster.endpoints", []string{"localhost:2379"})
	v.SetDefault("cluster.prefix", "pitaya/")
	v.SetDefault("cluster.dial_timeout", 5)
	v.SetDefault("cluster.lease_ttl", 60)
}

// DefaultConfig 只有默认值，不读文件
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	c := &Config{vp: v}
	if err := v.Unmarshal(&c.conf); err != nil {
		logger.Log.Errorf("unmarshal default config: %v", err)
	}
	return c
}

// LoadConfig 读取配置文件并监听修改
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	c := &Config{vp: v}
	if err := v.Unmarshal(&c.conf); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(in fsnotify.Event) {
		c.reload(in)
	})
	v.WatchConfig()
	return c, nil
}

func (c *Config) reload(in fsnotify.Event) {
	var conf Conf
	if err := c.vp.Unmarshal(&conf); err != nil {
		logger.Log.Errorf("reload %s failed: %v", in.Name, err)
		return
	}
	c.mu.Lock()
	c.conf = conf
	c.mu.Unlock()
	logger.Log.Infof("config %s reloaded, bot delay %+v", in.Name, conf.Bot.Delay)
}

// Get 当前配置的副本
func (c *Config) Get() Conf {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conf
}

// Set 测试用
func (c *Config) Set(conf Conf) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conf = conf
}

func (c *Config) BotLevel() bot.Level {
	return bot.ParseLevel(c.Get().Bot.Level)
}

// Delays 按当前配置换算
func (c *Config) Delays() Delays {
	d := c.Get().Bot.Delay
	return Delays{
		Draw:    time.Duration(d.Draw) * time.Millisecond,
		Turn:    time.Duration(d.Turn) * time.Millisecond,
		Claim:   time.Duration(d.Claim) * time.Millisecond,
		Resolve: time.Duration(d.Resolve) * time.Millisecond,
	}
}

type Delays struct {
	Draw    time.Duration
	Turn    time.Duration
	Claim   time.Duration
	Resolve time.Duration
}
