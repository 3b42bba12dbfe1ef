package converter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/amankumarsingh77/media-convert-server/internal/config"
	"github.com/amankumarsingh77/media-convert-server/internal/jobs"
	"github.com/amankumarsingh77/media-convert-server/internal/models"
	"github.com/amankumarsingh77/media-convert-server/pkg/logger"
	"github.com/amankumarsingh77/media-convert-server/pkg/utils"
)

const (
	defaultHeightCeiling = 720

	downloadScaleCap    = 70.0
	downloadScaleFactor = 0.7
	// progress once the download phase reports completion and the external
	// tool moves on to extracting/merging
	convertingProgress = 80

	diagnosticTailLines = 20

	maxDiagnosticLineBytes = 1 << 20
)

var audioCandidates = []string{"mp3", "m4a", "webm", "opus"}
var videoCandidates = []string{"mp4", "mkv", "webm"}

type ytdlpConverter struct {
	cfg      *config.Config
	registry jobs.Registry
	logger   logger.Logger
}

func NewYtdlpConverter(cfg *config.Config, registry jobs.Registry, log logger.Logger) jobs.Converter {
	return &ytdlpConverter{
		cfg:      cfg,
		registry: registry,
		logger:   log,
	}
}

// Run supervises one external conversion until the job reaches a terminal
// state. The job must already be claimed (status downloading) by the caller;
// exactly one of ready / error is written back through the registry.
func (c *ytdlpConverter) Run(ctx context.Context, jobID, format, quality string) {
	job, err := c.registry.Get(jobID)
	if err != nil {
		c.logger.Errorf("converter: job %s disappeared before start: %v", jobID, err)
		return
	}

	workDir := c.cfg.Downloader.WorkingDir
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		c.fail(jobID, &jobs.ConversionError{Detail: fmt.Sprintf("creating working dir: %v", err)})
		return
	}

	title := models.DefaultTitle
	if job.Metadata != nil {
		title = job.Metadata.Title
	}
	base := fmt.Sprintf("%s_%d", utils.SanitizeTitle(title), time.Now().Unix())
	outputTemplate := filepath.Join(workDir, base+".%(ext)s")

	runCtx, cancel := context.WithTimeout(ctx, c.cfg.Downloader.ConvertTimeoutDuration())
	defer cancel()

	args := BuildArgs(format, quality, outputTemplate, job.SourceURL)
	cmd := exec.CommandContext(runCtx, c.cfg.Downloader.BinaryPath, args...)

	// Progress must be observable before the process exits, so both streams
	// are funneled through one pipe and scanned line by line.
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		c.fail(jobID, &jobs.ConversionError{Detail: err.Error()})
		return
	}
	c.logger.Infof("job %s: spawned %s (format=%s quality=%s)", jobID, c.cfg.Downloader.BinaryPath, format, quality)

	waitErr := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		pw.Close()
		waitErr <- err
	}()

	var tail []string
	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 64*1024), maxDiagnosticLineBytes)
	for scanner.Scan() {
		line := scanner.Text()
		tail = appendTail(tail, line)
		c.applyProgress(jobID, line)
	}
	// an over-long line aborts the scan; close the read side so the
	// process's stream copy unblocks and Wait can return
	pr.CloseWithError(scanner.Err())
	err = <-waitErr

	if runCtx.Err() == context.DeadlineExceeded {
		c.logger.Warnf("job %s: conversion exceeded %s, process killed", jobID, c.cfg.Downloader.ConvertTimeoutDuration())
		c.fail(jobID, jobs.ErrConversionTimeout)
		return
	}
	if err != nil {
		c.fail(jobID, &jobs.ConversionError{Detail: strings.Join(tail, "\n")})
		return
	}

	artifact, ok := ResolveArtifact(filepath.Join(workDir, base), format)
	if !ok {
		c.fail(jobID, jobs.ErrOutputMissing)
		return
	}

	now := time.Now()
	if _, err := c.registry.Update(jobID, func(j *models.Job) {
		j.Status = models.JobStatusReady
		j.Progress = 100
		j.OutputPath = artifact
		j.CompletedAt = &now
	}); err != nil {
		c.logger.Errorf("job %s: recording success: %v", jobID, err)
		return
	}
	c.logger.Infof("job %s: ready, artifact %s", jobID, artifact)
}

// BuildArgs assembles the yt-dlp invocation for the requested format. Quality
// is a maximum-height ceiling and is ignored for audio.
func BuildArgs(format, quality, outputTemplate, sourceURL string) []string {
	args := []string{"--newline", "--no-playlist", "--no-warnings"}
	switch format {
	case models.FormatAudio:
		args = append(args,
			"-f", "bestaudio",
			"-x",
			"--audio-format", "mp3",
			"--audio-quality", "192K",
		)
	case models.FormatVideo:
		ceiling := HeightCeiling(quality)
		args = append(args,
			"-f", fmt.Sprintf("bestvideo[height<=?%d]+bestaudio/best[height<=?%d]", ceiling, ceiling),
			"--merge-output-format", "mp4",
		)
	}
	return append(args, "-o", outputTemplate, sourceURL)
}

// HeightCeiling parses a quality selector like "720" or "1080p".
func HeightCeiling(quality string) int {
	q := strings.TrimSuffix(strings.TrimSpace(quality), "p")
	h, err := strconv.Atoi(q)
	if err != nil {
		return defaultHeightCeiling
	}
	switch h {
	case 144, 240, 360, 480, 720, 1080, 1440, 2160:
		return h
	default:
		return defaultHeightCeiling
	}
}

// ResolveArtifact finds the file the external tool actually produced. The
// requested container comes first, then the fallbacks yt-dlp emits when the
// source container is retained.
func ResolveArtifact(basePath, format string) (string, bool) {
	candidates := videoCandidates
	if format == models.FormatAudio {
		candidates = audioCandidates
	}
	for _, ext := range candidates {
		path := basePath + "." + ext
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

func (c *ytdlpConverter) applyProgress(jobID, line string) {
	if !strings.Contains(line, "[download]") {
		return
	}
	pct, ok := ParseProgress(line)
	if !ok {
		return
	}

	var mutate func(j *models.Job)
	if pct >= 100 {
		mutate = func(j *models.Job) {
			if j.Status.Terminal() {
				return
			}
			j.Status = models.JobStatusConverting
			if convertingProgress > j.Progress {
				j.Progress = convertingProgress
			}
		}
	} else {
		scaled := ScaleDownload(pct)
		mutate = func(j *models.Job) {
			if j.Status.Terminal() {
				return
			}
			if scaled > j.Progress {
				j.Progress = scaled
			}
		}
	}

	if _, err := c.registry.Update(jobID, mutate); err != nil {
		c.logger.Warnf("job %s: progress update dropped: %v", jobID, err)
	}
}

func (c *ytdlpConverter) fail(jobID string, cause error) {
	now := time.Now()
	_, err := c.registry.Update(jobID, func(j *models.Job) {
		if j.Status.Terminal() {
			return
		}
		j.Status = models.JobStatusError
		j.ErrorDetail = cause.Error()
		j.CompletedAt = &now
	})
	if err != nil {
		c.logger.Errorf("job %s: recording failure: %v", jobID, err)
		return
	}
	c.logger.Errorf("job %s: %v", jobID, cause)
}

func appendTail(tail []string, line string) []string {
	if strings.TrimSpace(line) == "" {
		return tail
	}
	tail = append(tail, line)
	if len(tail) > diagnosticTailLines {
		tail = tail[1:]
	}
	return tail
}
