package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/blackduck-inc/io-prescription-action/internal/ioclient"
	"github.com/blackduck-inc/io-prescription-action/internal/log"
	"github.com/blackduck-inc/io-prescription-action/internal/model"
)

const (
	ephemeralTokenName = "ephemeral-token"
	defaultJava        = "java"
)

// transient files of the former curl based ephemeral authentication
var ephemeralFiles = []string{"cookie.txt", "line.txt", "output.json"}

// Reporter is the step log and outputs, see actions.Step
type Reporter interface {
	Println(a ...any)
	Printf(format string, a ...any)
	SetOutput(name, value string) error
	Error(msg string)
	Fail(msg string)
	Mask(value string)
	AddSummary(markdown string) error
}

// Fetcher downloads the prescription script of a workflow version to dst
type Fetcher interface {
	Fetch(ctx context.Context, version, dst string) error
}

// IdentityClient creates tokens on an IO server, see ioclient.Client
type IdentityClient interface {
	Onboard(ctx context.Context, creds ioclient.Credentials) error
	Login(ctx context.Context, creds ioclient.Credentials) (string, error)
	IssueToken(ctx context.Context, accessToken, name string) (string, error)
}

type Config struct {
	Inputs model.Inputs
	SCM    model.SCM
	Dir    string // working directory, empty means the current one
	Java   string // java binary, empty means java from PATH
}

// Prescription is a single run of the step
type Prescription struct {
	inputs   model.Inputs
	scm      model.SCM
	dir      string
	java     string
	step     Reporter
	runner   Runner
	fetcher  Fetcher
	identity IdentityClient
}

// New returns a Prescription. The identity client is used only for the
// ephemeral token and may be nil otherwise.
func New(cfg Config, step Reporter, runner Runner, fetcher Fetcher, identity IdentityClient) (*Prescription, error) {
	dir := cfg.Dir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		dir = cwd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("working directory %s: %w", cfg.Dir, err)
	}

	java := cfg.Java
	if java == "" {
		java = defaultJava
	}

	return &Prescription{
		inputs:   cfg.Inputs,
		scm:      cfg.SCM,
		dir:      dir,
		java:     java,
		step:     step,
		runner:   runner,
		fetcher:  fetcher,
		identity: identity,
	}, nil
}

// Do runs the stage selected by the inputs. A returned error is fatal and is
// not reported to the step yet, failures of individual steps are.
func (p *Prescription) Do(ctx context.Context) error {
	if p.inputs.Ephemeral() {
		p.inputs.IOServerToken = p.authenticate(ctx)
	}

	stage := strings.ToUpper(p.inputs.Stage)
	ctx = log.ContextAttrs(ctx, slog.String("stage", stage))
	slog.DebugContext(ctx, "running stage", "dir", p.dir, "inputs", p.inputs.Redacted(), "scm", p.scm)

	switch stage {
	case model.StageIO:
		return p.io(ctx)
	case model.StageWorkflow:
		return p.workflow(ctx)
	default:
		p.step.Error("Error: Invalid stage given as input")
		p.step.Fail("")
		return nil
	}
}

// authenticate creates a token for the local IO server. Errors are only
// logged, an unusable token makes the prescription fail later.
func (p *Prescription) authenticate(ctx context.Context) string {
	p.step.Println("\nAuthenticating the Ephemeral IO Server")
	defer removeFiles(ctx, p.dir, ephemeralFiles...)

	if p.identity == nil {
		slog.WarnContext(ctx, "no identity client configured: skipping ephemeral authentication")
		return ""
	}

	user := ioclient.EphemeralUser
	if err := p.identity.Onboard(ctx, user); err != nil {
		slog.WarnContext(ctx, "ephemeral onboarding failed", "error", err)
	}
	accessToken, err := p.identity.Login(ctx, user)
	if err != nil {
		slog.WarnContext(ctx, "ephemeral login failed", "error", err)
	}
	token, err := p.identity.IssueToken(ctx, accessToken, ephemeralTokenName)
	if err != nil {
		slog.WarnContext(ctx, "issuing ephemeral token failed", "error", err)
	}
	p.step.Mask(token)

	p.step.Println("\nEphemeral IO Server Authentication Completed")
	return token
}

// prescribe obtains the prescription script and runs it. In the IO stage the
// script is always downloaded again, WORKFLOW reuses an existing copy and
// passes the workflow server url.
func (p *Prescription) prescribe(ctx context.Context, workflow bool, what string) Outcome {
	script := p.path(model.ScriptFile)
	if !workflow {
		removeFiles(ctx, p.dir, model.ScriptFile)
	}

	if !exists(script) {
		if err := p.fetcher.Fetch(ctx, p.inputs.WorkflowVersion, script); err != nil {
			return failure("Error: %s failed: %v", what, err)
		}
		if err := prepareScript(script); err != nil {
			return failure("Error: %s failed: preparing %s: %v", what, model.ScriptFile, err)
		}
	}

	res := p.runner.Run(ctx, Command{
		Path: script,
		Args: p.prescriptionArgs(workflow),
		Dir:  p.dir,
	})
	return exitOutcome(res, what)
}

func (p *Prescription) prescriptionArgs(workflow bool) []string {
	in := p.inputs
	args := []string{
		"--io.url=" + in.IOServerURL,
		"--io.token=" + in.IOServerToken,
		"--io.manifest.url=" + in.IOManifestURL,
		"--manifest.type=" + in.ManifestType,
		"--stage=" + in.Stage,
		"--release.type=" + in.ReleaseType,
		"--workflow.version=" + in.WorkflowVersion,
	}
	if workflow {
		args = append(args, "--workflow.url="+in.WorkflowServerURL)
	}
	args = append(args,
		"--asset.id="+p.scm.AssetID,
		"--scm.type="+p.scm.Type,
		"--scm.owner="+p.scm.Owner,
		"--scm.repo.name="+p.scm.Repo,
		"--scm.branch.name="+p.scm.Branch,
		"--github.username="+p.scm.Actor,
	)
	return append(args, model.SplitArgs(in.AdditionalWorkflowArgs)...)
}

// report marks the step failed for a failed Outcome
func (p *Prescription) report(o Outcome) {
	if o.OK {
		return
	}
	p.step.Error(o.Message)
	p.step.Fail("")
}

func (p *Prescription) setOutput(ctx context.Context, name, value string) {
	if err := p.step.SetOutput(name, value); err != nil {
		slog.ErrorContext(ctx, "setting output failed", "output", name, "error", err)
		p.step.Error(fmt.Sprintf("Error: setting output %s failed: %v", name, err))
		p.step.Fail("")
	}
}

func (p *Prescription) addSummary(ctx context.Context, markdown string) {
	if err := p.step.AddSummary(markdown); err != nil {
		slog.WarnContext(ctx, "writing job summary failed", "error", err)
	}
}

func (p *Prescription) path(name string) string {
	return filepath.Join(p.dir, name)
}
