package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"seequence/internal/config"
	"seequence/internal/model"
	"seequence/internal/narration"
	"seequence/internal/pipeline"
)

type fakeRunner struct {
	scenes []model.Scene
	err    error
}

func (f *fakeRunner) Run(_ context.Context, state *pipeline.RunState) (*pipeline.RunState, error) {
	if f.err != nil {
		return nil, f.err
	}
	state.Title = "A Title"
	state.Scenes = make([]model.Scene, len(f.scenes))
	copy(state.Scenes, f.scenes)
	return state, nil
}

type fakeSynth struct {
	failFor map[int]bool
	calls   int
}

func (f *fakeSynth) Synthesize(_ context.Context, _ string, stem string) (*narration.Clip, error) {
	f.calls++
	var sceneID int
	fmt.Sscanf(stem, "scene_%d", &sceneID)
	if f.failFor[sceneID] {
		return nil, errors.New("tts backend down")
	}
	return &narration.Clip{
		Path:     "/tmp/" + stem + ".mp3",
		URL:      "/static/audio/" + stem + ".mp3",
		Duration: 2.0,
	}, nil
}

func (f *fakeSynth) Voice() string { return "test" }

func newTestService(runner pipeline.Runner, synth narration.Synthesizer) *VisualsService {
	return NewVisualsService(nil, nil, nil, runner, nil, synth, nil, nil, &config.PipelineConfig{StyleGuide: "style"})
}

func narratedScenes() []model.Scene {
	return []model.Scene{
		{SceneID: 1, SceneSummary: "first", SourceSentences: []string{"First sentence."}},
		{SceneID: 2, SceneSummary: "second", SourceSentences: []string{"Second sentence."}},
		{SceneID: 3, SceneSummary: "third", SourceSentences: []string{"Third sentence."}},
	}
}

func TestGenerateVisualsWithAudio_SceneFailureDegrades(t *testing.T) {
	synth := &fakeSynth{failFor: map[int]bool{2: true}}
	svc := newTestService(&fakeRunner{scenes: narratedScenes()}, synth)

	resp, err := svc.GenerateVisualsWithAudio(context.Background(), "some text", 0)
	if err != nil {
		t.Fatalf("GenerateVisualsWithAudio: %v", err)
	}
	if len(resp.Scenes) != 3 {
		t.Fatalf("scenes = %d, want 3", len(resp.Scenes))
	}

	if resp.Scenes[0].AudioURL == "" || resp.Scenes[0].AudioDurationSeconds == nil {
		t.Error("scene 1 should have audio")
	}
	if resp.Scenes[1].AudioURL != "" || resp.Scenes[1].AudioDurationSeconds != nil {
		t.Error("failed scene should degrade to absent audio, not fail the request")
	}
	if resp.Scenes[2].AudioURL == "" {
		t.Error("scene 3 should have audio")
	}
}

func TestGenerateVisualsSingleAudio_AllSynthFailed(t *testing.T) {
	synth := &fakeSynth{failFor: map[int]bool{1: true, 2: true, 3: true}}
	svc := newTestService(&fakeRunner{scenes: narratedScenes()}, synth)

	_, err := svc.GenerateVisualsSingleAudio(context.Background(), "some text", 0)
	if !errors.Is(err, ErrNoNarration) {
		t.Fatalf("err = %v, want ErrNoNarration", err)
	}
}

func TestGenerateVisuals_EmptyTextRejected(t *testing.T) {
	svc := newTestService(&fakeRunner{scenes: narratedScenes()}, &fakeSynth{})

	if _, err := svc.GenerateVisuals(context.Background(), "   ", 0); err == nil {
		t.Fatal("empty text should be rejected before the pipeline runs")
	}
}

func TestGenerateVisuals_PipelineErrorPropagates(t *testing.T) {
	svc := newTestService(&fakeRunner{err: errors.New("pipeline failed")}, &fakeSynth{})

	if _, err := svc.GenerateVisuals(context.Background(), "some text", 0); err == nil {
		t.Fatal("pipeline error should propagate")
	}
}

func TestNarrationText(t *testing.T) {
	withSources := model.Scene{SceneSummary: "sum", SourceSentences: []string{"One.", "Two."}}
	if got := narrationText(withSources); got != "One. Two." {
		t.Errorf("narrationText = %q, want joined sources", got)
	}

	summaryOnly := model.Scene{SceneSummary: "just a summary"}
	if got := narrationText(summaryOnly); got != "just a summary" {
		t.Errorf("narrationText = %q, want summary fallback", got)
	}
}
