package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"

	"github.com/amankumarsingh77/media-convert-server/internal/config"
	"github.com/amankumarsingh77/media-convert-server/internal/jobs"
	"github.com/amankumarsingh77/media-convert-server/internal/models"
	"github.com/amankumarsingh77/media-convert-server/pkg/logger"
)

type ytdlpProber struct {
	cfg    *config.Config
	logger logger.Logger
}

func NewYtdlpProber(cfg *config.Config, log logger.Logger) jobs.Prober {
	return &ytdlpProber{
		cfg:    cfg,
		logger: log,
	}
}

// Fetch runs the probe once under the configured timeout. Failures are
// surfaced immediately; there are no retries.
func (p *ytdlpProber) Fetch(ctx context.Context, sourceURL string) (*models.Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Downloader.ProbeTimeoutDuration())
	defer cancel()

	cmd := exec.CommandContext(ctx, p.cfg.Downloader.BinaryPath,
		"--dump-json",
		"--no-playlist",
		"--no-warnings",
		sourceURL,
	)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			p.logger.Warnf("metadata probe timed out for %s", sourceURL)
			return nil, &jobs.MetadataFetchError{Reason: jobs.FetchReasonTimeout}
		}
		p.logger.Errorf("metadata probe exited for %s: %v", sourceURL, err)
		return nil, &jobs.MetadataFetchError{
			Reason: jobs.FetchReasonExit,
			Detail: strings.TrimSpace(stderr.String()),
		}
	}

	return parseProbeOutput(out.Bytes())
}

type probeRecord struct {
	Title     string   `json:"title"`
	Thumbnail string   `json:"thumbnail"`
	Duration  *float64 `json:"duration"`
	Uploader  string   `json:"uploader"`
	ViewCount *int64   `json:"view_count"`
}

func parseProbeOutput(data []byte) (*models.Metadata, error) {
	var rec probeRecord
	if err := json.Unmarshal(bytes.TrimSpace(data), &rec); err != nil {
		return nil, &jobs.MetadataFetchError{
			Reason: jobs.FetchReasonParse,
			Detail: err.Error(),
		}
	}

	md := &models.Metadata{
		Title:     rec.Title,
		Thumbnail: rec.Thumbnail,
		Duration:  rec.Duration,
		Uploader:  rec.Uploader,
		ViewCount: rec.ViewCount,
	}
	md.ApplyDefaults()
	return md, nil
}
