package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/saicharan2011-ops/EchoAlert/internal/config"
	"github.com/saicharan2011-ops/EchoAlert/internal/extractor"
)

// selectExtractor resolves the configured extractor ("auto", "yamnet" or
// "stub") to a working instance. "auto" prefers the native YAMNet
// backend when compiled in; a failed probe falls back to the stub only
// in dev mode, otherwise it is fatal.
func selectExtractor(cfg config.Config, logger *slog.Logger) (extractor.Extractor, string, error) {
	resolved := cfg.Extractor
	isAuto := resolved == "auto"

	if isAuto {
		if extractor.NativeAvailable() {
			resolved = "yamnet"
		} else {
			resolved = "stub"
			logger.Warn("auto-detected extractor: stub (yamnet not compiled in, build with -tags yamnet for production)")
		}
	}

	switch resolved {
	case "yamnet":
		if !extractor.NativeAvailable() {
			return nil, "", fmt.Errorf("extractor %q requested but not compiled in (build with -tags yamnet)", resolved)
		}
		ext, err := extractor.NewNativeExtractor(cfg.ModelPath)
		if err != nil {
			if isAuto && os.Getenv("ECHOALERT_DEV_MODE") == "1" {
				logger.Warn("yamnet initialization failed, falling back to stub extractor (ECHOALERT_DEV_MODE=1)",
					"error", err,
					"hint", "unset ECHOALERT_DEV_MODE for production behavior")
				return extractor.NewStubExtractor(), "stub", nil
			}
			return nil, "", fmt.Errorf("yamnet initialization failed: %w", err)
		}
		logger.Info("extractor ready", "type", "yamnet", "dim", ext.Dim())
		return ext, "yamnet", nil
	case "stub":
		logger.Warn("using stub extractor — classifications are NOT based on learned sound features")
		return extractor.NewStubExtractor(), "stub", nil
	default:
		return nil, "", fmt.Errorf("unknown extractor %q", cfg.Extractor)
	}
}
