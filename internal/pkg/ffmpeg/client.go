package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Client FFmpeg 客户端
// 用于封装 FFmpeg 命令调用（音频时长探测与无损拼接）
type Client struct {
	ffmpegPath  string // FFmpeg 可执行文件路径（默认: ffmpeg）
	ffprobePath string // FFprobe 可执行文件路径（默认: ffprobe）
}

// NewClient 创建 FFmpeg 客户端
func NewClient() *Client {
	ffmpegPath := os.Getenv("FFMPEG_PATH")
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}

	ffprobePath := os.Getenv("FFPROBE_PATH")
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}

	return &Client{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}
}

// Available 检查 ffmpeg 是否在 PATH 上可用
func (c *Client) Available() error {
	if _, err := exec.LookPath(c.ffmpegPath); err != nil {
		return fmt.Errorf("ffmpeg not found on PATH (install it, e.g. `apt install ffmpeg` or `brew install ffmpeg`): %w", err)
	}
	return nil
}

// AudioInfo 音频信息
type AudioInfo struct {
	Duration float64 // 时长（秒）
}

// GetAudioInfo 获取音频信息
func (c *Client) GetAudioInfo(ctx context.Context, audioPath string) (*AudioInfo, error) {
	// 使用 ffprobe 获取音频信息
	// ffprobe -v error -show_entries format=duration -of json audio.mp3
	cmd := exec.CommandContext(ctx, c.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		audioPath,
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	// ffprobe 返回 {"format": {"duration": "6.336000"}}，duration 是字符串
	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if probe.Format.Duration == "" {
		return nil, fmt.Errorf("ffprobe output missing duration: %s", string(output))
	}

	duration, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return nil, fmt.Errorf("parse duration %q: %w", probe.Format.Duration, err)
	}

	return &AudioInfo{Duration: duration}, nil
}

// ConcatAudio 无损拼接多个音频文件
// 使用 concat demuxer（需要创建 concat list 文件）+ stream copy，不重新编码
func (c *Client) ConcatAudio(ctx context.Context, audioPaths []string, outputPath string) error {
	if len(audioPaths) == 0 {
		return fmt.Errorf("no audio files to concat")
	}

	// concat list 文件与输出放在同一目录
	tempDir := filepath.Dir(outputPath)
	concatListFile := filepath.Join(tempDir, fmt.Sprintf("concat_list_%d.txt", time.Now().UnixNano()))

	file, err := os.Create(concatListFile)
	if err != nil {
		return fmt.Errorf("create concat list file: %w", err)
	}
	defer os.Remove(concatListFile) // 清理临时文件

	for _, audioPath := range audioPaths {
		absPath, err := filepath.Abs(audioPath)
		if err != nil {
			file.Close()
			return fmt.Errorf("get absolute path: %w", err)
		}
		// 生成的文件名不含引号/空格，直接写入是安全的
		fmt.Fprintf(file, "file '%s'\n", absPath)
	}
	file.Close()

	// ffmpeg -y -f concat -safe 0 -i concat_list.txt -c copy output.mp3
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", concatListFile,
		"-c", "copy", // 使用 copy 避免重新编码
		outputPath,
	}

	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		if len(msg) > 4000 {
			msg = msg[len(msg)-4000:]
		}
		return fmt.Errorf("ffmpeg concat failed: %w: %s", err, msg)
	}

	log.Info().
		Int("count", len(audioPaths)).
		Str("output", outputPath).
		Msg("音频拼接成功")

	return nil
}
