package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/blackduck-inc/io-prescription-action/internal/actions"
	"github.com/blackduck-inc/io-prescription-action/internal/model"
)

// activityOutputs maps the recognized activities to the step outputs
var activityOutputs = map[string]string{
	"sca":         "scaScan",
	"dast":        "dastScan",
	"threatmodel": "threatmodelScan",
	"network":     "networkScan",
	"cloud":       "cloudScan",
	"infra":       "infraScan",
	"sast":        "sastScan",
	"dastplusm":   "dastplusmScan",
	"imagescan":   "imageScan",
	"sastplusm":   "sastplusmScan",
}

// ioFiles are removed at the end of the IO stage
var ioFiles = []string{model.ResultFile, "io.yml", "io.json", "data.json"}

// io runs the prescription and publishes its result. A failed prescription
// is reported, but the result is read anyway.
func (p *Prescription) io(ctx context.Context) error {
	p.step.Println("Triggering prescription")
	defer removeFiles(ctx, p.dir, ioFiles...)

	p.report(p.prescribe(ctx, false, "Execution"))

	result, err := p.loadResult(ctx)
	if err != nil {
		return err
	}
	return p.publish(ctx, result)
}

func (p *Prescription) loadResult(ctx context.Context) (model.Result, error) {
	f, err := os.Open(p.path(model.ResultFile))
	if err != nil {
		return model.Result{}, fmt.Errorf("reading %s: %w", model.ResultFile, err)
	}
	defer func() {
		_ = f.Close()
	}()

	result, err := model.LoadResult(f)
	if err != nil {
		for _, d := range model.ResultErrDetails(err) {
			slog.ErrorContext(ctx, "invalid prescription result", d.Attr("detail"))
		}
		return model.Result{}, fmt.Errorf("parsing %s: %w", model.ResultFile, err)
	}
	return result, nil
}

func (p *Prescription) publish(ctx context.Context, result model.Result) error {
	p.step.Println("\n================================== IO Prescription =======================================")

	rows := make([][]string, 0, len(result.Activities))
	for _, a := range result.Activities {
		output, ok := activityOutputs[strings.ToLower(a.Key)]
		if !ok {
			slog.DebugContext(ctx, "activity not recognized", "activity", a.Key)
			continue
		}
		key := strings.ToUpper(a.Key)
		enabled := strconv.FormatBool(a.Enabled)
		p.step.Printf("Is %s(%s) Enabled: %s", a.LongName, key, enabled)
		p.setOutput(ctx, output, enabled)
		rows = append(rows, []string{a.LongName, key, enabled})
	}

	p.setOutput(ctx, "runId", result.RunID)

	summary := "### IO Prescription\n\n" + actions.MarkdownTable([]string{"Activity", "Key", "Enabled"}, rows)

	if persona, ok := model.Persona(p.inputs.AdditionalWorkflowArgs); ok && persona == model.PersonaDevSecOps {
		scores, err := result.Scores()
		if err != nil {
			return fmt.Errorf("risk score card: %w", err)
		}
		total := model.FormatScore(model.TotalScore(scores))

		p.step.Println("==================================== IO Risk Score =======================================")
		scoreRows := make([][]string, 0, len(scores)+1)
		for _, s := range scores {
			p.step.Printf("%s - %s", s.Label, s.Value)
			scoreRows = append(scoreRows, []string{s.Label, s.Value})
		}
		p.step.Printf("Total Score - %s", total)
		scoreRows = append(scoreRows, []string{"Total Score", total})

		summary += "\n\n### IO Risk Score\n\n" + actions.MarkdownTable([]string{"Score", "Value"}, scoreRows)
	}

	p.addSummary(ctx, summary)
	return nil
}
