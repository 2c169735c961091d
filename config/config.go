package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// 配置集群客户端属性的包。
// ClientProperties 存储拓扑发现需要的参数，配置文件沿用 redis.conf 的格式：每行 "key value"，# 开头为注释

// ClientProperties 定义全局配置属性
type ClientProperties struct {
	// 种子节点地址列表，逗号分隔，按顺序尝试
	ClusterSeeds []string `cfg:"cluster-seeds"`
	// 所有集群节点使用相同的密码
	RequirePass string `cfg:"requirepass"`
	// 建立连接的超时时间，单位毫秒
	ConnectTimeout int `cfg:"connect-timeout"`
	// 读写超时时间，单位毫秒
	ReadTimeout int `cfg:"read-timeout"`

	LogLevel string `cfg:"loglevel"`
	LogDir   string `cfg:"logdir"`
	LogFile  string `cfg:"logfile"`
	LogJSON  bool   `cfg:"log-json"`

	// config file path
	CfPath string `cfg:"cf,omitempty"`
}

const (
	defaultConnectTimeout = 1000
	defaultReadTimeout    = 1000
)

// DialTimeout returns ConnectTimeout as a duration, falling back to the default
func (p *ClientProperties) DialTimeout() time.Duration {
	if p.ConnectTimeout <= 0 {
		return defaultConnectTimeout * time.Millisecond
	}
	return time.Duration(p.ConnectTimeout) * time.Millisecond
}

// IOTimeout returns ReadTimeout as a duration, falling back to the default
func (p *ClientProperties) IOTimeout() time.Duration {
	if p.ReadTimeout <= 0 {
		return defaultReadTimeout * time.Millisecond
	}
	return time.Duration(p.ReadTimeout) * time.Millisecond
}

// Properties holds global config properties
var Properties *ClientProperties

func init() {
	Properties = defaultProperties()
}

func defaultProperties() *ClientProperties {
	return &ClientProperties{
		ClusterSeeds:   []string{"127.0.0.1:7000"},
		ConnectTimeout: defaultConnectTimeout,
		ReadTimeout:    defaultReadTimeout,
		LogLevel:       "info",
	}
}

// parse 解析配置文件，未出现的键保留默认值
func parse(src io.Reader) (*ClientProperties, error) {
	config := defaultProperties()

	// read config file
	rawMap := make(map[string]string)
	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		line := scanner.Text()
		if trimmed := strings.TrimLeft(line, " "); len(trimmed) > 0 && trimmed[0] == '#' {
			continue
		}
		pivot := strings.IndexAny(line, " ")
		if pivot > 0 && pivot < len(line)-1 { // separator found
			key := line[0:pivot]
			value := strings.Trim(line[pivot+1:], " ")
			rawMap[strings.ToLower(key)] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// parse format
	t := reflect.TypeOf(config)
	v := reflect.ValueOf(config)
	n := t.Elem().NumField()
	for i := 0; i < n; i++ {
		field := t.Elem().Field(i)
		fieldVal := v.Elem().Field(i)
		key, ok := field.Tag.Lookup("cfg")
		if !ok || strings.TrimLeft(key, " ") == "" {
			key = field.Name
		}
		key = strings.Split(key, ",")[0]
		value, ok := rawMap[strings.ToLower(key)]
		if !ok {
			continue
		}
		// fill config
		switch field.Type.Kind() {
		case reflect.String:
			fieldVal.SetString(value)
		case reflect.Int:
			intValue, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("config: %s: %w", key, err)
			}
			fieldVal.SetInt(intValue)
		case reflect.Bool:
			boolValue := "yes" == value
			fieldVal.SetBool(boolValue)
		case reflect.Slice:
			if field.Type.Elem().Kind() == reflect.String {
				var slice []string
				for _, item := range strings.Split(value, ",") {
					if item = strings.TrimSpace(item); item != "" {
						slice = append(slice, item)
					}
				}
				fieldVal.Set(reflect.ValueOf(slice))
			}
		}
	}
	return config, nil
}

// SetupConfig 读取配置文件并调用parse函数解析其内容，然后更新全局Properties变量
func SetupConfig(configFilename string) error {
	file, err := os.Open(configFilename)
	if err != nil {
		return err
	}
	defer file.Close()
	props, err := parse(file)
	if err != nil {
		return err
	}
	if configFilePath, err := filepath.Abs(configFilename); err == nil {
		props.CfPath = configFilePath
	}
	Properties = props
	return nil
}
