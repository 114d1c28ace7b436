package realip

import (
	"fmt"
	"reflect"
	"strings"
)

func (c *config) validate() error {
	if !c.trustMode.valid() {
		return fmt.Errorf("invalid trust mode %d (must be TrustNone=1, TrustAll=2 or TrustList=3)", c.trustMode)
	}

	if err := c.validateHeaderKeys(); err != nil {
		return err
	}

	if isNilLogger(c.logger) {
		return fmt.Errorf("logger cannot be nil")
	}
	if isNilMetrics(c.metrics) {
		return fmt.Errorf("metrics cannot be nil")
	}
	return nil
}

func (c *config) validateHeaderKeys() error {
	seen := make(map[string]struct{}, len(c.headerKeys))

	for _, key := range c.headerKeys {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("header names cannot be empty")
		}

		if _, ok := seen[key]; ok {
			return fmt.Errorf("duplicate header %q in priority list", key)
		}
		seen[key] = struct{}{}
	}

	return nil
}

func isNilLogger(logger Logger) bool {
	return isNilInterface(logger)
}

func isNilMetrics(metrics Metrics) bool {
	return isNilInterface(metrics)
}

func isNilInterface(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}
