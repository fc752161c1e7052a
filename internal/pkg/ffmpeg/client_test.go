package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// writeStubProbe 生成一个打印固定输出的 ffprobe 脚本
func writeStubProbe(t *testing.T, output string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ffprobe")
	script := fmt.Sprintf("#!/bin/sh\ncat <<'EOF'\n%s\nEOF\n", output)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub ffprobe: %v", err)
	}
	return path
}

func TestGetAudioInfo(t *testing.T) {
	// ffprobe -of json 的真实输出带缩进和冒号后的空格
	canonical := `{
    "format": {
        "filename": "scene_1.mp3",
        "duration": "6.336000",
        "size": "101376"
    }
}`

	tests := []struct {
		name    string
		output  string
		want    float64
		wantErr bool
	}{
		{"canonical pretty-printed JSON", canonical, 6.336, false},
		{"compact JSON", `{"format":{"duration":"2.5"}}`, 2.5, false},
		{"missing duration", `{"format":{"filename":"a.mp3"}}`, 0, true},
		{"non-JSON output", `not json at all`, 0, true},
		{"non-numeric duration", `{"format":{"duration":"N/A"}}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FFPROBE_PATH", writeStubProbe(t, tt.output))
			client := NewClient()

			info, err := client.GetAudioInfo(context.Background(), "whatever.mp3")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got info %+v", info)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetAudioInfo: %v", err)
			}
			if info.Duration != tt.want {
				t.Errorf("duration = %v, want %v", info.Duration, tt.want)
			}
		})
	}
}
