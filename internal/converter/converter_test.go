package converter

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/amankumarsingh77/media-convert-server/internal/config"
	"github.com/amankumarsingh77/media-convert-server/internal/jobs"
	"github.com/amankumarsingh77/media-convert-server/internal/jobs/repository"
	"github.com/amankumarsingh77/media-convert-server/internal/models"
	"github.com/amankumarsingh77/media-convert-server/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildArgs_Audio(t *testing.T) {
	args := BuildArgs(models.FormatAudio, "ignored", "/tmp/out.%(ext)s", "https://example.com/v")

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-f bestaudio")
	assert.Contains(t, joined, "-x")
	assert.Contains(t, joined, "--audio-format mp3")
	assert.Equal(t, "https://example.com/v", args[len(args)-1])
	assert.NotContains(t, joined, "height")
}

func TestBuildArgs_VideoHeightCeiling(t *testing.T) {
	args := BuildArgs(models.FormatVideo, "360", "/tmp/out.%(ext)s", "https://example.com/v")

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "bestvideo[height<=?360]+bestaudio/best[height<=?360]")
	assert.Contains(t, joined, "--merge-output-format mp4")
}

func TestHeightCeiling(t *testing.T) {
	assert.Equal(t, 360, HeightCeiling("360"))
	assert.Equal(t, 1080, HeightCeiling("1080p"))
	assert.Equal(t, 720, HeightCeiling(""))
	assert.Equal(t, 720, HeightCeiling("potato"))
	assert.Equal(t, 720, HeightCeiling("999"))
}

func TestResolveArtifact_PrefersRequestedThenFallsBack(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "clip_123")
	require.NoError(t, os.WriteFile(base+".webm", []byte("x"), 0o644))

	path, ok := ResolveArtifact(base, models.FormatVideo)
	require.True(t, ok)
	assert.Equal(t, base+".webm", path)

	require.NoError(t, os.WriteFile(base+".mp4", []byte("x"), 0o644))
	path, ok = ResolveArtifact(base, models.FormatVideo)
	require.True(t, ok)
	assert.Equal(t, base+".mp4", path)
}

func TestResolveArtifact_NoneExists(t *testing.T) {
	_, ok := ResolveArtifact(filepath.Join(t.TempDir(), "missing"), models.FormatAudio)
	assert.False(t, ok)
}

func TestRun_SuccessWithFallbackContainer(t *testing.T) {
	// stub emits download progress, then writes an .m4a even though the
	// requested audio container is mp3
	stub := writeStub(t, `#!/bin/sh
tpl=""
prev=""
for a in "$@"; do
  if [ "$prev" = "-o" ]; then tpl="$a"; fi
  prev="$a"
done
out=$(printf '%s' "$tpl" | sed 's/%(ext)s/m4a/')
echo "[download] Destination: $out"
echo "[download]  45.2% of ~10.00MiB at 1.00MiB/s"
echo "[download] 100% of 10.00MiB in 00:05"
printf 'audio-bytes' > "$out"
`)
	reg, jobID, cfg := claimedJob(t, stub, 30)
	NewYtdlpConverter(cfg, reg, logger.NewNopLogger()).Run(context.Background(), jobID, models.FormatAudio, "")

	job, err := reg.Get(jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusReady, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.True(t, strings.HasSuffix(job.OutputPath, ".m4a"), "got %s", job.OutputPath)
	require.NotNil(t, job.CompletedAt)

	_, statErr := os.Stat(job.OutputPath)
	assert.NoError(t, statErr)
}

func TestRun_NonZeroExit(t *testing.T) {
	stub := writeStub(t, `#!/bin/sh
echo "ERROR: no formats found"
exit 1
`)
	reg, jobID, cfg := claimedJob(t, stub, 30)
	NewYtdlpConverter(cfg, reg, logger.NewNopLogger()).Run(context.Background(), jobID, models.FormatVideo, "720")

	job, err := reg.Get(jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusError, job.Status)
	assert.Contains(t, job.ErrorDetail, "no formats found")
	assert.Empty(t, job.OutputPath)
}

func TestRun_OutputMissing(t *testing.T) {
	stub := writeStub(t, `#!/bin/sh
echo "[download] 100% of 1.00MiB in 00:01"
exit 0
`)
	reg, jobID, cfg := claimedJob(t, stub, 30)
	NewYtdlpConverter(cfg, reg, logger.NewNopLogger()).Run(context.Background(), jobID, models.FormatAudio, "")

	job, err := reg.Get(jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusError, job.Status)
	assert.Equal(t, jobs.ErrOutputMissing.Error(), job.ErrorDetail)
}

func TestRun_TimeoutFreezesProgress(t *testing.T) {
	stub := writeStub(t, `#!/bin/sh
echo "[download]  30.0% of ~10.00MiB"
exec sleep 30
`)
	reg, jobID, cfg := claimedJob(t, stub, 1)
	NewYtdlpConverter(cfg, reg, logger.NewNopLogger()).Run(context.Background(), jobID, models.FormatAudio, "")

	job, err := reg.Get(jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusError, job.Status)
	assert.Equal(t, jobs.ErrConversionTimeout.Error(), job.ErrorDetail)
	// frozen at the last observed value
	assert.Equal(t, 21, job.Progress)
}

func TestRun_OversizedDiagnosticLineStillTerminates(t *testing.T) {
	// a single line larger than the scanner limit must not wedge the
	// supervision loop after the process exits
	stub := writeStub(t, `#!/bin/sh
echo "[download]  25.0% of ~10.00MiB"
head -c 2097152 /dev/zero | tr '\0' 'x'
echo ""
exit 1
`)
	reg, jobID, cfg := claimedJob(t, stub, 10)

	done := make(chan struct{})
	go func() {
		NewYtdlpConverter(cfg, reg, logger.NewNopLogger()).Run(context.Background(), jobID, models.FormatAudio, "")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("supervision did not return after the process exited")
	}

	job, err := reg.Get(jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusError, job.Status)
	require.NotNil(t, job.CompletedAt)
}

func TestRun_ProgressSequenceIsMonotonic(t *testing.T) {
	// noisy, out-of-order diagnostic lines must never regress progress
	stub := writeStub(t, `#!/bin/sh
tpl=""
prev=""
for a in "$@"; do
  if [ "$prev" = "-o" ]; then tpl="$a"; fi
  prev="$a"
done
echo "[download]  60.0% of ~10.00MiB"
echo "[download]  10.0% of ~10.00MiB"
echo "garbage in between"
echo "[download] 100% of 10.00MiB in 00:02"
printf 'x' > "$(printf '%s' "$tpl" | sed 's/%(ext)s/mp3/')"
`)
	reg, jobID, cfg := claimedJob(t, stub, 30)
	NewYtdlpConverter(cfg, reg, logger.NewNopLogger()).Run(context.Background(), jobID, models.FormatAudio, "")

	job, err := reg.Get(jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusReady, job.Status)
	assert.Equal(t, 100, job.Progress)
}

// claimedJob seeds a registry with one job already claimed into the
// downloading state, the way the usecase hands jobs to the converter.
func claimedJob(t *testing.T, binary string, timeoutSec int) (jobs.Registry, string, *config.Config) {
	t.Helper()
	reg := repository.NewMemoryRegistry()
	job := reg.Create("https://example.com/watch?v=abc", &models.Metadata{Title: "Big Buck Bunny"})
	_, err := reg.Update(job.ID, func(j *models.Job) {
		j.Status = models.JobStatusDownloading
		j.Progress = 10
	})
	require.NoError(t, err)

	cfg := &config.Config{
		Downloader: config.DownloaderConfig{
			BinaryPath:     binary,
			WorkingDir:     t.TempDir(),
			ConvertTimeout: timeoutSec,
		},
	}
	return reg, job.ID, cfg
}

func writeStub(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ytdlp-stub.sh")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}
