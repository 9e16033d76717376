//go:build !linux

package environ

import "github.com/cockroachdb/errors"

var errUnsupported = errors.New("reading machine resources is only supported on linux")

// SystemGauge reads the running machine.
type SystemGauge struct{}

// Memory implements Gauge.
func (SystemGauge) Memory() (ram, swap uint64, err error) {
	return 0, 0, errUnsupported
}

// Disk implements Gauge.
func (SystemGauge) Disk(string) (total, free uint64, err error) {
	return 0, 0, errUnsupported
}

// Kernel implements Gauge.
func (SystemGauge) Kernel() string {
	return ""
}
