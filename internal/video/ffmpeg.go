// Package video owns the camera side of the pipeline: a recorder that
// fills the segment buffer chunk by chunk, and a stitcher that assembles
// event clips from it. Both shell out to ffmpeg; the invocations are
// injectable so tests never need the binary.
package video

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"
)

// Runner executes one ffmpeg invocation to completion.
type Runner func(ctx context.Context, args []string) error

// RunFFmpeg is the production Runner.
func RunFFmpeg(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stderr = os.Stderr
	// Separate process group so Ctrl+C reaches us first and the segment
	// in flight closes cleanly.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("video: ffmpeg %v: %w", args, err)
	}
	return nil
}

// captureArgs records one chunk from a v4l2 camera device.
func captureArgs(device string, chunk time.Duration, outPath string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-f", "v4l2", "-i", device,
		"-t", formatSeconds(chunk),
		"-c:v", "libx264", "-preset", "ultrafast", "-pix_fmt", "yuv420p",
		"-y", outPath,
	}
}

// simulationArgs synthesizes one placeholder chunk from a lavfi color
// source with a burned-in timestamp, keeping the buffer continuous when
// the camera is unavailable.
func simulationArgs(chunk time.Duration, ts time.Time, outPath string) []string {
	label := "SIMULATION " + ts.Format("2006-01-02 15\\:04\\:05")
	return []string{
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-f", "lavfi", "-i", "color=c=darkgray:s=640x480:r=15",
		"-t", formatSeconds(chunk),
		"-vf", "drawtext=text='" + label + "':fontcolor=white:fontsize=24:x=20:y=20",
		"-c:v", "libx264", "-preset", "ultrafast", "-pix_fmt", "yuv420p",
		"-y", outPath,
	}
}

// concatArgs joins segments listed in a concat-demuxer file without
// re-encoding.
func concatArgs(listPath, outPath string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-f", "concat", "-safe", "0", "-i", listPath,
		"-c", "copy",
		"-y", outPath,
	}
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
