package agents

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AgentBlueprint is one configured agent persona.
type AgentBlueprint struct {
	Role      string `yaml:"role"`
	Goal      string `yaml:"goal"`
	Backstory string `yaml:"backstory"`
}

// TaskBlueprint describes a delegated analysis task.
type TaskBlueprint struct {
	Description    string `yaml:"description"`
	ExpectedOutput string `yaml:"expected_output"`
	Agent          string `yaml:"agent"`
}

// Blueprints is the full agent/task configuration.
type Blueprints struct {
	Agents map[string]AgentBlueprint `yaml:"agents"`
	Tasks  map[string]TaskBlueprint  `yaml:"tasks"`
}

const defaultBlueprintsYAML = `
agents:
  assistant:
    role: Business Intelligence Assistant
    goal: Compile clear executive summaries from the analytical findings.
    backstory: A seasoned BI lead who translates numbers into decisions.
  analyst:
    role: Sales Data Analyst
    goal: Explain what happened in the sales data and why.
    backstory: Lives in dashboards, obsessed with drivers behind every delta.
  forecaster:
    role: Demand Forecaster
    goal: Project near-term revenue using the fitted monthly trend.
    backstory: Pragmatic statistician who prefers simple transparent models.
  advisor:
    role: Strategy Advisor
    goal: Turn diagnostics into concrete commercial actions.
    backstory: A former sales director focused on margin-safe growth moves.
tasks:
  descriptive:
    description: >-
      Review the KPI snapshot and month-over-month drivers and describe
      overall performance, calling out the largest positive and negative
      contributors.
    expected_output: A short factual paragraph on performance and drivers.
    agent: analyst
  predictive:
    description: >-
      Interpret the linear monthly forecast, stating the expected
      direction and magnitude of next-month revenue.
    expected_output: One or two sentences on the projected trend.
    agent: forecaster
  prescriptive:
    description: >-
      Review the rule-based recommendations and prioritize the two
      actions with the best margin-adjusted upside.
    expected_output: A prioritized action shortlist with rationale.
    agent: advisor
`

// LoadBlueprints reads agent/task configuration from a YAML file, or
// returns the embedded defaults when path is empty.
func LoadBlueprints(path string) (*Blueprints, error) {
	data := []byte(defaultBlueprintsYAML)
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read blueprints: %w", err)
		}
	}

	var bp Blueprints
	if err := yaml.Unmarshal(data, &bp); err != nil {
		return nil, fmt.Errorf("parse blueprints: %w", err)
	}
	if len(bp.Agents) == 0 {
		return nil, fmt.Errorf("blueprints define no agents")
	}
	return &bp, nil
}
