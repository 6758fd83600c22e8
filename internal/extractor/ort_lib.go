//go:build yamnet

package extractor

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// resolveORTLibPath locates the ONNX Runtime shared library. An explicit
// ECHOALERT_ORT_LIB_PATH wins; otherwise lib/<goos>-<goarch>/ is probed
// next to the executable and one level up (bin/ layout). The same probe
// relative to the CWD runs only with ECHOALERT_DEV_MODE=1, since a
// CWD-based library lookup in production is a hijacking vector.
func resolveORTLibPath() (string, error) {
	if envPath := os.Getenv("ECHOALERT_ORT_LIB_PATH"); envPath != "" {
		info, err := os.Stat(envPath)
		if err != nil {
			return "", fmt.Errorf("ort: ECHOALERT_ORT_LIB_PATH=%q does not exist", envPath)
		}
		if info.IsDir() {
			return "", fmt.Errorf("ort: ECHOALERT_ORT_LIB_PATH=%q is a directory, expected a file", envPath)
		}
		return envPath, nil
	}

	filename := ortLibFilename()
	platformDir := filepath.Join("lib", runtime.GOOS+"-"+runtime.GOARCH)

	var roots []string
	if exePath, err := os.Executable(); err == nil {
		roots = append(roots, filepath.Dir(exePath))
	}
	if os.Getenv("ECHOALERT_DEV_MODE") == "1" {
		if cwd, err := os.Getwd(); err == nil {
			roots = append(roots, cwd)
		}
	}

	for _, root := range roots {
		for _, up := range []string{".", ".."} {
			candidate := filepath.Join(root, up, platformDir, filename)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
	}

	return "", fmt.Errorf("ort: shared library not found; searched %s/%s relative to executable (set ECHOALERT_ORT_LIB_PATH to override, or ECHOALERT_DEV_MODE=1 to enable CWD lookup)", platformDir, filename)
}

// ortLibFilename returns the platform-specific library filename.
func ortLibFilename() string {
	switch runtime.GOOS {
	case "darwin":
		return "libonnxruntime.dylib"
	case "windows":
		return "onnxruntime.dll"
	default:
		return "libonnxruntime.so"
	}
}
