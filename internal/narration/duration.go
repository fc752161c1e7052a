package narration

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"seequence/internal/pkg/ffmpeg"
)

// DurationProber 音频时长探测
// 抽成接口方便在时间轴逻辑的单测里注入假实现
type DurationProber interface {
	// ProbeDuration 探测音频时长（秒），失败时降级为0，不向上抛错
	ProbeDuration(ctx context.Context, path string) float64
}

// Prober 按容器格式选择探测策略的时长探测器
// .wav 直接解析 RIFF 头，其他格式走 ffprobe；带短暂重试以容忍文件系统写入可见性竞争
type Prober struct {
	ffmpeg   *ffmpeg.Client
	attempts int
	delay    time.Duration
}

// NewProber 创建时长探测器
func NewProber(ff *ffmpeg.Client) *Prober {
	return &Prober{
		ffmpeg:   ff,
		attempts: 5,
		delay:    100 * time.Millisecond,
	}
}

// ProbeDuration 探测音频时长（秒）
// 所有策略在所有尝试中都失败时记录警告并返回0，绝不让单个场景的探测失败中断批处理
func (p *Prober) ProbeDuration(ctx context.Context, path string) float64 {
	attempts := p.attempts
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		var dur float64
		var err error

		if strings.HasSuffix(strings.ToLower(path), ".wav") {
			dur, err = wavDuration(path)
		} else {
			var info *ffmpeg.AudioInfo
			info, err = p.ffmpeg.GetAudioInfo(ctx, path)
			if err == nil {
				dur = info.Duration
			}
		}

		if err == nil && dur > 0 {
			return dur
		}
		if err != nil {
			log.Debug().Err(err).Str("path", path).Int("attempt", i+1).Msg("duration read error")
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return 0
			case <-time.After(p.delay):
			}
		}
	}

	size := int64(-1)
	if fi, err := os.Stat(path); err == nil {
		size = fi.Size()
	}
	log.Warn().Str("path", path).Int64("size", size).Msg("duration fallback 0.0")
	return 0
}

// wavDuration 解析 WAV（RIFF）文件头计算时长
// 时长 = data 块字节数 / fmt 块的 byte rate
func wavDuration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var header [12]byte
	if _, err := io.ReadFull(f, header[:]); err != nil {
		return 0, fmt.Errorf("read RIFF header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return 0, fmt.Errorf("not a RIFF/WAVE file")
	}

	var byteRate uint32
	var dataSize uint32

	// 遍历 chunk，找 fmt 和 data
	for {
		var chunkHeader [8]byte
		if _, err := io.ReadFull(f, chunkHeader[:]); err != nil {
			break
		}
		chunkID := string(chunkHeader[0:4])
		chunkSize := binary.LittleEndian.Uint32(chunkHeader[4:8])

		switch chunkID {
		case "fmt ":
			var fmtChunk [16]byte
			if _, err := io.ReadFull(f, fmtChunk[:]); err != nil {
				return 0, fmt.Errorf("read fmt chunk: %w", err)
			}
			byteRate = binary.LittleEndian.Uint32(fmtChunk[8:12])
			if chunkSize > 16 {
				if _, err := f.Seek(int64(chunkSize-16), io.SeekCurrent); err != nil {
					return 0, err
				}
			}
		case "data":
			dataSize = chunkSize
			// data 可能出现在 fmt 之前，跳过音频载荷继续找 fmt
			if byteRate == 0 {
				if _, err := f.Seek(int64(chunkSize), io.SeekCurrent); err != nil {
					return 0, err
				}
			}
		default:
			if _, err := f.Seek(int64(chunkSize), io.SeekCurrent); err != nil {
				return 0, err
			}
		}

		if byteRate > 0 && dataSize > 0 {
			break
		}
	}

	if byteRate == 0 || dataSize == 0 {
		return 0, fmt.Errorf("fmt/data chunk not found")
	}
	return float64(dataSize) / float64(byteRate), nil
}
