package observability

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

// WriteTextfile writes the metrics gathered from registry to path in the
// Prometheus text exposition format, for pickup by a node exporter textfile
// collector. Missing parent directories are created.
func WriteTextfile(path string, registry prometheus.Gatherer) error {
	mkdirErr := os.MkdirAll(filepath.Dir(path), 0o755)
	if mkdirErr != nil {
		return fmt.Errorf("metrics textfile dir: %w", mkdirErr)
	}

	writeErr := prometheus.WriteToTextfile(path, registry)
	if writeErr != nil {
		return fmt.Errorf("metrics textfile: %w", writeErr)
	}

	return nil
}
