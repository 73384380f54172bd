package integrity

import (
	"bytes"
	"encoding/json"
	"os"
	"sort"
	"strings"
)

// SARIF 2.1.0 writing (minimal subset, enough for code-scanning uploads).

type SarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []SarifRun `json:"runs"`
}
type SarifRun struct {
	Tool              SarifTool           `json:"tool"`
	AutomationDetails *SarifRunAutomation `json:"automationDetails,omitempty"`
	Results           []SarifResult       `json:"results"`
}
type SarifTool struct {
	Driver SarifDriver `json:"driver"`
}
type SarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version,omitempty"`
	Rules   []SarifRule `json:"rules,omitempty"`
}
type SarifRule struct {
	ID               string       `json:"id"`
	ShortDescription SarifMessage `json:"shortDescription"`
}
type SarifRunAutomation struct {
	ID string `json:"id"`
}
type SarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   SarifMessage    `json:"message"`
	Locations []SarifLocation `json:"locations,omitempty"`
}
type SarifMessage struct {
	Text string `json:"text"`
}
type SarifLocation struct {
	PhysicalLocation SarifPhysicalLocation `json:"physicalLocation"`
}
type SarifPhysicalLocation struct {
	ArtifactLocation SarifArtifactLocation `json:"artifactLocation"`
	Region           *SarifRegion          `json:"region,omitempty"`
}
type SarifArtifactLocation struct {
	URI string `json:"uri"`
}
type SarifRegion struct {
	StartLine int `json:"startLine"`
}

// ExportSARIF writes the tracker findings as a SARIF 2.1.0 log. Results
// follow report order: tracker order, sorted paths, line encounter order.
// Every finding is level "error"; anything reported fails the gate.
func ExportSARIF(path string, trackers []Tracker, runID, toolVersion string) error {
	log := SarifLog{
		Version: "2.1.0",
		Schema:  "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json",
		Runs: []SarifRun{{
			Tool: SarifTool{Driver: SarifDriver{
				Name:    "checkfiles",
				Version: toolVersion,
			}},
			AutomationDetails: &SarifRunAutomation{ID: "checkfiles/run/" + runID},
			Results:           []SarifResult{},
		}},
	}

	for _, t := range trackers {
		log.Runs[0].Tool.Driver.Rules = append(log.Runs[0].Tool.Driver.Rules, SarifRule{
			ID:               t.Name(),
			ShortDescription: SarifMessage{Text: strings.TrimSuffix(t.Heading(), ":")},
		})

		issues := t.Issues()
		paths := make([]string, 0, len(issues))
		for p := range issues {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		msg := strings.TrimSuffix(t.Heading(), ":")
		for _, p := range paths {
			uri := strings.TrimPrefix(p, "./")
			lines := issues[p]
			if len(lines) == 0 {
				log.Runs[0].Results = append(log.Runs[0].Results, sarifResult(t.Name(), msg, uri, 0))
				continue
			}
			for _, n := range lines {
				log.Runs[0].Results = append(log.Runs[0].Results, sarifResult(t.Name(), msg, uri, n))
			}
		}
	}

	tmp := &bytes.Buffer{}
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&log); err != nil {
		return err
	}
	return os.WriteFile(path, tmp.Bytes(), 0o644)
}

func sarifResult(ruleID, msg, uri string, line int) SarifResult {
	loc := SarifLocation{
		PhysicalLocation: SarifPhysicalLocation{
			ArtifactLocation: SarifArtifactLocation{URI: uri},
		},
	}
	if line > 0 {
		loc.PhysicalLocation.Region = &SarifRegion{StartLine: line}
	}
	return SarifResult{
		RuleID:    ruleID,
		Level:     "error",
		Message:   SarifMessage{Text: msg},
		Locations: []SarifLocation{loc},
	}
}
