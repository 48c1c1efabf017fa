package reviews

import (
	"log/slog"
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// DeviceInfo reports the compute device the pipeline runs on.
type DeviceInfo struct {
	Requested string
	Selected  string
	Brand     string
	Cores     int
	Threads   int
	Features  []string
}

// ConfigureDevice resolves selector to a usable device. Numeric work always
// runs on the CPU through gonum; a GPU request is logged and execution
// continues on the CPU with its default memory behaviour. The CPU features
// are reported only; gonum picks its own kernels.
func ConfigureDevice(selector string, logger *slog.Logger) DeviceInfo {
	if logger == nil {
		logger = defaultLogger()
	}
	info := DeviceInfo{
		Requested: strings.ToUpper(selector),
		Selected:  DeviceCPU,
		Brand:     cpuid.CPU.BrandName,
		Cores:     cpuid.CPU.PhysicalCores,
		Threads:   runtime.GOMAXPROCS(0),
	}

	// Check if the CPU supports the vector extensions gonum's kernels use
	for _, f := range []struct {
		name string
		id   cpuid.FeatureID
	}{
		{"SSE4.2", cpuid.SSE42},
		{"AVX", cpuid.AVX},
		{"AVX2", cpuid.AVX2},
		{"FMA3", cpuid.FMA3},
		{"AVX512F", cpuid.AVX512F},
	} {
		if cpuid.CPU.Supports(f.id) {
			info.Features = append(info.Features, f.name)
		}
	}

	if info.Requested == DeviceGPU {
		logger.Info("could not enable GPU memory growth: no GPU backend available, continuing on CPU",
			"requested", info.Requested)
	}

	logger.Info("device configured",
		"device", info.Selected,
		"cpu", info.Brand,
		"cores", info.Cores,
		"threads", info.Threads,
		"features", strings.Join(info.Features, ","))
	return info
}
