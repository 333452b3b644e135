package config

type Config struct {
	Running struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"running"`
	Mysql struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"mysql"`
	Redis struct {
		Addrs    []string `mapstructure:"addrs"`
		Password string   `mapstructure:"password"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		Topic   string   `mapstructure:"topic"`
	} `mapstructure:"kafka"`
	Auth struct {
		Secret string `mapstructure:"secret"`
	} `mapstructure:"auth"`
	// 转换选项进配置：两个编辑面必须用同一套参数渲染，否则投影对不上
	Markdown struct {
		Fence            string `mapstructure:"fence"`
		IndentSize       int    `mapstructure:"indentSize"`
		OrderedListStyle string `mapstructure:"orderedListStyle"` // increment / one
	} `mapstructure:"markdown"`
}
