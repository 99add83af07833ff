package metrics

import (
	"fmt"
	"sync"

	"github.com/parcelops/dispatchd/core/factory"
	coremetrics "github.com/parcelops/dispatchd/core/metrics"
)

type influxConf struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterBuiltinSinks registers the sink factories shipped with this module:
// "influx" and "nop". Safe to call more than once.
func RegisterBuiltinSinks() error {
	registerOnce.Do(func() {
		registerErr = registerBuiltinSinks()
	})
	return registerErr
}

func registerBuiltinSinks() error {
	if err := coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	}); err != nil {
		return err
	}
	return coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c influxConf
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.URL == "" {
			return nil, fmt.Errorf("influx sink: url is required")
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})
}
