package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Viper reads settings through spf13/viper.
type Viper struct {
	v *viper.Viper
}

// NewViper reads the file at path and reloads it whenever it changes on
// disk. The format follows the file extension.
func NewViper(path string) (*Viper, error) {
	v := viper.New()
	v.SetConfigFile(filepath.Clean(path))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	v.OnConfigChange(func(ev fsnotify.Event) {
		if err := v.ReadInConfig(); err != nil {
			slog.Error("config reload failed", "path", ev.Name, "error", err)
			return
		}
		slog.Info("config reloaded", "path", ev.Name, "op", ev.Op.String())
	})
	v.WatchConfig()

	return &Viper{v: v}, nil
}

// NewViperFromBytes parses an in-memory document of the given format
// ("yaml", "json", "toml"...). Tests build their settings this way.
func NewViperFromBytes(format string, data []byte) (*Viper, error) {
	format = strings.TrimSpace(format)
	if format == "" {
		return nil, errors.New("config format is required")
	}

	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

func (c *Viper) GetString(key string) string   { return c.v.GetString(key) }
func (c *Viper) GetBool(key string) bool       { return c.v.GetBool(key) }
func (c *Viper) GetInt(key string) int         { return c.v.GetInt(key) }
func (c *Viper) GetInt32(key string) int32     { return c.v.GetInt32(key) }
func (c *Viper) GetUint16(key string) uint16   { return c.v.GetUint16(key) }
func (c *Viper) GetFloat64(key string) float64 { return c.v.GetFloat64(key) }

func (c *Viper) GetSecond(key string) time.Duration { return c.unit(key, time.Second) }
func (c *Viper) GetMinute(key string) time.Duration { return c.unit(key, time.Minute) }
func (c *Viper) GetHour(key string) time.Duration   { return c.unit(key, time.Hour) }

func (c *Viper) unit(key string, d time.Duration) time.Duration {
	return time.Duration(c.v.GetInt64(key)) * d
}

func (c *Viper) GetBinary(key string) []byte {
	raw := strings.TrimSpace(c.v.GetString(key))
	if raw == "" {
		return nil
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	return data
}

func (c *Viper) GetArray(key string) []string {
	var items []string
	switch raw := c.v.Get(key).(type) {
	case nil:
		return nil
	case string:
		items = strings.Split(raw, ",")
	case []string:
		items = raw
	case []any:
		items = make([]string, 0, len(raw))
		for _, it := range raw {
			items = append(items, fmt.Sprint(it))
		}
	default:
		items = c.v.GetStringSlice(key)
	}

	out := items[:0:0]
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

// Close is a no-op; the file watcher lives for the whole process.
func (c *Viper) Close() error {
	return nil
}
