package environ

import (
	"context"
	"fmt"
	"runtime"

	"github.com/cockroachdb/errors"

	errUtils "github.com/umsi-mads/mads/errors"
	log "github.com/umsi-mads/mads/pkg/logger"
	"github.com/umsi-mads/mads/pkg/shell"
)

const (
	gib = 1 << 30

	// SwapFile is where EnableSwap allocates swap space.
	SwapFile = "/swapfile"
)

// Gauge reads machine capacity.
type Gauge interface {
	// Memory returns total RAM and total swap in bytes.
	Memory() (ram, swap uint64, err error)
	// Disk returns the total and free bytes of the filesystem holding path.
	Disk(path string) (total, free uint64, err error)
	// Kernel names the running kernel.
	Kernel() string
}

// Resources describe the machine a build runs on.
type Resources struct {
	Machine      string  `yaml:"machine"`
	GoVersion    string  `yaml:"go_version"`
	Cores        int     `yaml:"cores"`
	MainMemoryGB float64 `yaml:"main_memory"`
	SwapMemoryGB float64 `yaml:"swap_memory"`
	StorageGB    float64 `yaml:"storage"`
}

// LoadResources measures the machine. Values a gauge cannot read stay zero.
func LoadResources(gauge Gauge) Resources {
	if gauge == nil {
		gauge = SystemGauge{}
	}

	r := Resources{
		Machine:   fmt.Sprintf("%s-%s", runtime.GOOS, runtime.GOARCH),
		GoVersion: runtime.Version(),
		Cores:     runtime.NumCPU(),
	}
	if kernel := gauge.Kernel(); kernel != "" {
		r.Machine = fmt.Sprintf("%s-%s-%s", runtime.GOOS, kernel, runtime.GOARCH)
	}

	if ram, swap, err := gauge.Memory(); err == nil {
		r.MainMemoryGB = float64(ram) / gib
		r.SwapMemoryGB = float64(swap) / gib
	} else {
		log.Debug("Unable to read memory", "error", err)
	}
	if total, _, err := gauge.Disk("/"); err == nil {
		r.StorageGB = float64(total) / gib
	} else {
		log.Debug("Unable to read disk usage", "error", err)
	}
	return r
}

// EnableSwap allocates a swap file of half the free disk and turns it on. Existing swap is left alone.
func (r *Resources) EnableSwap(ctx context.Context, exec shell.Executor, gauge Gauge) error {
	if gauge == nil {
		gauge = SystemGauge{}
	}
	if r.SwapMemoryGB > 0 {
		log.Info("Swap memory is already enabled.")
		return nil
	}

	_, free, err := gauge.Disk("/")
	if err != nil {
		return errUtils.Mark(errors.Wrap(err, "reading free disk space"), errUtils.ErrSwapSetup)
	}
	swapGB := free / gib / 2
	if swapGB == 0 {
		return errUtils.Build(errors.Wrap(errUtils.ErrSwapSetup, "not enough free disk for a swap file")).
			WithContext("free_bytes", free).
			Err()
	}

	for _, line := range []string{
		fmt.Sprintf("fallocate -l %dG %s", swapGB, SwapFile),
		"chmod 600 " + SwapFile,
		"mkswap " + SwapFile,
		"swapon " + SwapFile,
	} {
		cmd := shell.Command{Line: line}
		res, err := exec.Run(ctx, cmd)
		if err != nil {
			return err
		}
		if err := shell.Check(cmd, res); err != nil {
			log.Error("Failed to enable swap memory.")
			return errUtils.Mark(err, errUtils.ErrSwapSetup)
		}
	}

	if _, swap, err := gauge.Memory(); err == nil {
		r.SwapMemoryGB = float64(swap) / gib
	}
	return nil
}
