package service

import (
	"context"
	"log/slog"
	"os"

	"github.com/blackduck-inc/io-prescription-action/internal/model"
)

// workflow generates the manifest and hands it to the workflow engine
// client. The client is not started when the manifest generation fails.
func (p *Prescription) workflow(ctx context.Context) error {
	p.step.Println("Adding scan tool parameters")
	manifest := model.ManifestFile(p.inputs.ManifestType)
	defer removeFiles(ctx, p.dir, manifest, model.WorkflowOutputFile)

	if o := p.prescribe(ctx, true, "Workflow file generation"); !o.OK {
		p.report(o)
		return nil
	}

	p.step.Println("Workflow file generated successfully....Calling WorkFlow Engine")
	in := p.inputs
	res := p.runner.Run(ctx, Command{
		Path: p.java,
		Args: []string{
			"-jar", model.WorkflowClientFile,
			"--ioiq.url=" + in.IOServerURL,
			"--ioiq.token=" + in.IOServerToken,
			"--run.id=" + in.RunID,
			"--workflowengine.url=" + in.WorkflowServerURL,
			"--io.manifest.path=" + manifest,
		},
		Dir: p.dir,
	})
	p.report(exitOutcome(res, "Workflow"))

	p.breakerStatus(ctx)
	return nil
}

// breakerStatus prints the breaker status of the workflow engine, if any.
// Nothing here can fail the step.
func (p *Prescription) breakerStatus(ctx context.Context) {
	f, err := os.Open(p.path(model.WorkflowOutputFile))
	if err != nil {
		slog.DebugContext(ctx, "no workflow engine output", "error", err)
		return
	}
	defer func() {
		_ = f.Close()
	}()

	status, err := model.LoadBreakerStatus(f)
	if err != nil {
		slog.DebugContext(ctx, "can't read breaker status", "error", err)
		return
	}

	p.step.Println("========================== IO WorkflowEngine Summary ============================")
	p.step.Printf("Breaker Status - %s", status)
	p.addSummary(ctx, "### IO WorkflowEngine Summary\n\nBreaker Status - **"+status+"**")
}
