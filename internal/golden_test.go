package internal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/dshills/byteme/internal/profile"
	"github.com/dshills/byteme/internal/schema"
	"github.com/dshills/byteme/internal/score"
	"github.com/dshills/byteme/internal/service"
)

func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Dir(filepath.Dir(filename))
}

type goldenCase struct {
	Profile  string           `json:"profile"`
	Response service.Response `json:"response"`
	Want     struct {
		AverageScore float64  `json:"averageScore"`
		Tier         string   `json:"tier"`
		Weakest      string   `json:"weakest"`
		Advice       int      `json:"advice"`
		Violations   []string `json:"violations"`
	} `json:"want"`
}

// TestGoldenPayloads replays recorded service payloads through validation
// and local interpretation.
func TestGoldenPayloads(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join(projectRoot(), "testdata", "golden", "*.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatal("no golden payloads found")
	}

	for _, path := range paths {
		t.Run(strings.TrimSuffix(filepath.Base(path), ".json"), func(t *testing.T) {
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("failed to read golden file: %v", err)
			}
			var gc goldenCase
			if err := json.Unmarshal(data, &gc); err != nil {
				t.Fatalf("failed to parse golden JSON: %v", err)
			}
			p, err := profile.LoadBuiltin(gc.Profile)
			if err != nil {
				t.Fatalf("failed to load profile: %v", err)
			}

			verrs := schema.Validate(&gc.Response, p)
			if len(gc.Want.Violations) > 0 {
				var got []string
				for _, e := range verrs {
					got = append(got, e.Error())
				}
				if strings.Join(got, "\n") != strings.Join(gc.Want.Violations, "\n") {
					t.Errorf("violations:\n got  %q\n want %q", got, gc.Want.Violations)
				}
				return
			}
			for _, e := range verrs {
				t.Errorf("validation error: %s", e)
			}

			// The server's averageScore and tier are advisory; both are
			// recomputed from the declared metrics.
			got, err := score.Interpret(p.Vocabulary(), schema.Scores(&gc.Response, p))
			if err != nil {
				t.Fatalf("interpret: %v", err)
			}
			if diff := got.Average - gc.Want.AverageScore; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("average = %v, want %v", got.Average, gc.Want.AverageScore)
			}
			if string(got.Tier) != gc.Want.Tier {
				t.Errorf("tier = %s, want %s", got.Tier, gc.Want.Tier)
			}
			if got.Weakest != gc.Want.Weakest {
				t.Errorf("weakest = %s, want %s", got.Weakest, gc.Want.Weakest)
			}
			if len(got.Advice) != gc.Want.Advice {
				t.Errorf("advice count = %d, want %d: %v", len(got.Advice), gc.Want.Advice, got.Advice)
			}

			// Interpretation is deterministic.
			again, _ := score.Interpret(p.Vocabulary(), schema.Scores(&gc.Response, p))
			if again.Average != got.Average || again.Tier != got.Tier || again.Weakest != got.Weakest {
				t.Error("interpretation is not deterministic")
			}
		})
	}
}
