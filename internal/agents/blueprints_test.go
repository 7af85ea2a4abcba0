package agents

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadBlueprints_Defaults(t *testing.T) {
	bp, err := LoadBlueprints("")
	if err != nil {
		t.Fatalf("LoadBlueprints() error = %v", err)
	}

	for _, name := range []string{"assistant", "analyst", "forecaster", "advisor"} {
		agent, ok := bp.Agents[name]
		if !ok {
			t.Errorf("missing default agent %q", name)
			continue
		}
		if agent.Role == "" || agent.Goal == "" {
			t.Errorf("agent %q should have a role and goal, got %+v", name, agent)
		}
	}

	for _, name := range []string{"descriptive", "predictive", "prescriptive"} {
		task, ok := bp.Tasks[name]
		if !ok {
			t.Errorf("missing default task %q", name)
			continue
		}
		if _, ok := bp.Agents[task.Agent]; !ok {
			t.Errorf("task %q references unknown agent %q", name, task.Agent)
		}
	}
}

func TestLoadBlueprints_CustomFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.yaml")
	content := `
agents:
  analyst:
    role: Custom Analyst
    goal: Explain the numbers.
    backstory: Knows the data cold.
tasks:
  descriptive:
    description: Summarize performance.
    expected_output: A paragraph.
    agent: analyst
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	bp, err := LoadBlueprints(path)
	if err != nil {
		t.Fatalf("LoadBlueprints() error = %v", err)
	}
	if len(bp.Agents) != 1 {
		t.Errorf("expected 1 agent, got %d", len(bp.Agents))
	}
	if bp.Agents["analyst"].Role != "Custom Analyst" {
		t.Errorf("unexpected role %q", bp.Agents["analyst"].Role)
	}
	if bp.Tasks["descriptive"].Agent != "analyst" {
		t.Errorf("unexpected task wiring %+v", bp.Tasks["descriptive"])
	}
}

func TestLoadBlueprints_MissingFile(t *testing.T) {
	if _, err := LoadBlueprints(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadBlueprints_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("agents: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadBlueprints(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadBlueprints_NoAgents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("tasks: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadBlueprints(path); err == nil {
		t.Error("expected error for a file defining no agents")
	}
}
