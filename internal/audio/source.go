package audio

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"syscall"
)

// BlockSource delivers fixed-length blocks of microphone samples in
// [-1, 1]. ReadBlock blocks until a full block is available and returns
// io.EOF when the stream ends.
type BlockSource interface {
	ReadBlock() ([]float32, error)
	Close() error
}

// ReaderSource adapts a stream of little-endian s16 mono PCM into sample
// blocks. Used directly in tests and as the read side of FFmpegSource.
type ReaderSource struct {
	r   io.Reader
	buf []byte
}

// NewReaderSource creates a ReaderSource yielding blockSamples samples per
// ReadBlock.
func NewReaderSource(r io.Reader, blockSamples int) *ReaderSource {
	return &ReaderSource{r: r, buf: make([]byte, blockSamples*2)}
}

// ReadBlock blocks until a full block of PCM has arrived.
func (s *ReaderSource) ReadBlock() ([]float32, error) {
	if _, err := io.ReadFull(s.r, s.buf); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}
	return PCMToFloat32(s.buf), nil
}

// Close closes the underlying reader when it is closable.
func (s *ReaderSource) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// FFmpegSource captures the microphone by running ffmpeg against the ALSA
// device and streaming mono s16le PCM over stdout.
type FFmpegSource struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	inner  *ReaderSource
	log    *slog.Logger
}

// NewFFmpegSource starts the capture process. device is an ALSA name such
// as "default" or "hw:1,0".
func NewFFmpegSource(device string, sampleRate, blockSamples int, logger *slog.Logger) (*FFmpegSource, error) {
	if logger == nil {
		logger = slog.Default()
	}

	args := []string{
		"-hide_banner", "-loglevel", "error", "-nostdin", "-nostats",
		"-f", "alsa", "-i", device,
		"-ac", "1", "-ar", strconv.Itoa(sampleRate),
		"-f", "s16le", "-",
	}
	cmd := exec.Command("ffmpeg", args...)
	cmd.Stderr = os.Stderr
	// Separate process group so Ctrl+C reaches us first and capture drains.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("audio: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("audio: start ffmpeg capture on %q: %w", device, err)
	}
	logger.Info("microphone capture started", "device", device, "sample_rate", sampleRate)

	return &FFmpegSource{
		cmd:    cmd,
		stdout: stdout,
		inner:  NewReaderSource(stdout, blockSamples),
		log:    logger,
	}, nil
}

// ReadBlock returns the next block of microphone samples.
func (s *FFmpegSource) ReadBlock() ([]float32, error) {
	return s.inner.ReadBlock()
}

// Close stops the capture process.
func (s *FFmpegSource) Close() error {
	s.stdout.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	if err := s.cmd.Wait(); err != nil {
		s.log.Debug("ffmpeg capture exited", "error", err)
	}
	return nil
}
