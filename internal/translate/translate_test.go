package translate

import (
	"context"
	"errors"
	"testing"

	"github.com/supernan/redub/internal/domain/normalize"
	"github.com/supernan/redub/internal/faults"
	"github.com/supernan/redub/internal/transcript"
)

type hop struct {
	text, src, tgt string
}

type fakeTranslator struct {
	hops []hop
	out  map[string]string
	err  error
}

func (f *fakeTranslator) Translate(ctx context.Context, text, src, tgt string) (string, error) {
	f.hops = append(f.hops, hop{text, src, tgt})
	if f.err != nil {
		return "", f.err
	}
	if v, ok := f.out[text]; ok {
		return v, nil
	}
	return "[" + tgt + "] " + text, nil
}

type fakeRefiner struct {
	calls  []string
	failOn string
}

func (f *fakeRefiner) Refine(ctx context.Context, text string) (string, error) {
	f.calls = append(f.calls, text)
	if f.failOn != "" && text == f.failOn {
		return "", errors.New("refiner unavailable")
	}
	return text + " (polished)", nil
}

func sourceTranscript(texts ...string) transcript.Transcript {
	tr := transcript.Transcript{Language: "kn"}
	start := 0.0
	for _, txt := range texts {
		tr.Segments = append(tr.Segments, transcript.Segment{
			Span: transcript.Span{Start: start, End: start + 2.5},
			Text: txt,
		})
		start += 3
	}
	return tr
}

func directOptions() Options {
	return Options{Strategy: StrategyDirect, Source: "kn", Target: "hi"}
}

func TestRun_NormalizesBeforeTranslating(t *testing.T) {
	ft := &fakeTranslator{}
	stage := New(ft, nil, normalize.Default(), directOptions(), nil)

	tr := sourceTranscript("ಸೊಲ್ಪ ನೋಡ್ತಾ ಇರಿ")
	out, _, err := stage.Run(context.Background(), tr)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(ft.hops) != 1 {
		t.Fatalf("engine called %d times", len(ft.hops))
	}
	if ft.hops[0].text != "ಸ್ವಲ್ಪ ನೋಡುತ್ತಾ ಇರಿ" {
		t.Errorf("engine received %q, want the normalized form", ft.hops[0].text)
	}

	seg := out.Segments[0]
	if seg.SourceText != "ಸೊಲ್ಪ ನೋಡ್ತಾ ಇರಿ" {
		t.Errorf("source text = %q, want the raw input kept for audit", seg.SourceText)
	}
	if seg.NormalizedText != "ಸ್ವಲ್ಪ ನೋಡುತ್ತಾ ಇರಿ" {
		t.Errorf("normalized text = %q", seg.NormalizedText)
	}
	if seg.TargetText == "" {
		t.Error("target text empty")
	}
}

func TestRun_PreservesSpansAndOrder(t *testing.T) {
	ft := &fakeTranslator{}
	stage := New(ft, nil, normalize.Default(), directOptions(), nil)

	tr := sourceTranscript("ನಮಸ್ಕಾರ ಎಲ್ಲರಿಗೂ", "   ", "ಇವತ್ತು ಕಲಿಯೋಣ ಬನ್ನಿ")
	out, _, err := stage.Run(context.Background(), tr)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !out.Parallel(tr) {
		t.Fatal("output is not segment-parallel with the input")
	}
	for i, seg := range out.Segments {
		if seg.Span != tr.Segments[i].Span {
			t.Errorf("segment %d span %v, want %v copied verbatim", i, seg.Span, tr.Segments[i].Span)
		}
	}
	// The whitespace-only segment stays in place with an empty target.
	if out.Segments[1].TargetText != "" {
		t.Errorf("segment 1 target = %q, want empty", out.Segments[1].TargetText)
	}
	if out.SourceLanguage != "kn" || out.TargetLanguage != "hi" {
		t.Errorf("language tags = %q -> %q", out.SourceLanguage, out.TargetLanguage)
	}
}

func TestRun_EmptyNormalizedTextSkipsEngine(t *testing.T) {
	ft := &fakeTranslator{}
	stage := New(ft, nil, normalize.Default(), directOptions(), nil)

	out, _, err := stage.Run(context.Background(), sourceTranscript("   "))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(ft.hops) != 0 {
		t.Fatalf("engine called %d times for empty text, want none", len(ft.hops))
	}
	if out.Segments[0].TargetText != "" {
		t.Errorf("target = %q", out.Segments[0].TargetText)
	}
}

func TestRun_PivotComposesTwoSingleHops(t *testing.T) {
	ft := &fakeTranslator{out: map[string]string{
		"ನೀರು ಕುಡಿಯಿರಿ": "drink water",
		"drink water":   "पानी पीजिए",
	}}
	stage := New(ft, nil, normalize.Table{}, Options{
		Strategy: StrategyPivot,
		Source:   "kn",
		Target:   "hi",
		Pivot:    "en",
	}, nil)

	out, _, err := stage.Run(context.Background(), sourceTranscript("ನೀರು ಕುಡಿಯಿರಿ"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(ft.hops) != 2 {
		t.Fatalf("got %d engine calls, want exactly two hops", len(ft.hops))
	}
	first, second := ft.hops[0], ft.hops[1]
	if first.src != "kn" || first.tgt != "en" {
		t.Errorf("first hop %q -> %q, want kn -> en", first.src, first.tgt)
	}
	if second.src != "en" || second.tgt != "hi" {
		t.Errorf("second hop %q -> %q, want en -> hi", second.src, second.tgt)
	}
	if second.text != "drink water" {
		t.Errorf("second hop input %q, want the first hop's output", second.text)
	}
	if out.Segments[0].TargetText != "पानी पीजिए" {
		t.Errorf("target = %q", out.Segments[0].TargetText)
	}
}

func TestRun_PivotEmptyFirstHopSkipsSecond(t *testing.T) {
	ft := &fakeTranslator{out: map[string]string{"ಹೂಂ ಸರಿ": ""}}
	stage := New(ft, nil, normalize.Table{}, Options{
		Strategy: StrategyPivot,
		Source:   "kn",
		Target:   "hi",
		Pivot:    "en",
	}, nil)

	out, _, err := stage.Run(context.Background(), sourceTranscript("ಹೂಂ ಸರಿ"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(ft.hops) != 1 {
		t.Fatalf("got %d engine calls, want the second hop skipped", len(ft.hops))
	}
	if out.Segments[0].TargetText != "" {
		t.Errorf("target = %q", out.Segments[0].TargetText)
	}
}

func TestRun_PivotWithoutIntermediateLanguage(t *testing.T) {
	stage := New(&fakeTranslator{}, nil, normalize.Table{}, Options{
		Strategy: StrategyPivot,
		Source:   "kn",
		Target:   "hi",
	}, nil)

	_, _, err := stage.Run(context.Background(), sourceTranscript("ನೀರು"))
	if err == nil {
		t.Fatal("want error")
	}
	if !errors.Is(err, faults.ErrConfiguration) {
		t.Errorf("error not a configuration fault: %v", err)
	}
}

func TestRun_RefinerFailureFallsBackPerSegment(t *testing.T) {
	ft := &fakeTranslator{out: map[string]string{
		"ಒಂದು": "एक",
		"ಎರಡು": "दो",
		"ಮೂರು": "तीन",
	}}
	fr := &fakeRefiner{failOn: "दो"}
	stage := New(ft, fr, normalize.Table{}, directOptions(), nil)

	out, stats, err := stage.Run(context.Background(), sourceTranscript("ಒಂದು", "ಎರಡು", "ಮೂರು"))
	if err != nil {
		t.Fatalf("refiner failure must not abort the stage: %v", err)
	}

	if stats.Refined != 2 || stats.FellBack != 1 {
		t.Fatalf("stats = %+v, want 2 refined / 1 fallback", stats)
	}
	if got := out.Segments[0].TargetText; got != "एक (polished)" {
		t.Errorf("segment 0 target = %q", got)
	}
	if got := out.Segments[1].TargetText; got != "दो" {
		t.Errorf("segment 1 target = %q, want unrefined fallback", got)
	}
	if got := out.Segments[2].TargetText; got != "तीन (polished)" {
		t.Errorf("segment 2 target = %q", got)
	}
}

func TestRun_EmptyTargetSkipsRefinement(t *testing.T) {
	ft := &fakeTranslator{out: map[string]string{"ಹೂಂ": ""}}
	fr := &fakeRefiner{}
	stage := New(ft, fr, normalize.Table{}, directOptions(), nil)

	_, stats, err := stage.Run(context.Background(), sourceTranscript("ಹೂಂ"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(fr.calls) != 0 {
		t.Fatalf("refiner called %d times for empty target", len(fr.calls))
	}
	if stats.Refined != 0 || stats.FellBack != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRun_TranslatorFailureAborts(t *testing.T) {
	ft := &fakeTranslator{err: errors.New("connection refused")}
	stage := New(ft, nil, normalize.Table{}, directOptions(), nil)

	_, _, err := stage.Run(context.Background(), sourceTranscript("ನೀರು ಕುಡಿಯಿರಿ"))
	if err == nil {
		t.Fatal("want error")
	}
	if !errors.Is(err, faults.ErrExternalTool) {
		t.Errorf("error not classified as tool failure: %v", err)
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", StrategyDirect, false},
		{"direct", StrategyDirect, false},
		{"Direct", StrategyDirect, false},
		{" pivot ", StrategyPivot, false},
		{"cascade", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStrategy: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
