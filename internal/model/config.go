package model

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix GitHub Actions uses to pass step inputs
	EnvPrefix = "INPUT"

	StageIO       = "IO"
	StageWorkflow = "WORKFLOW"

	ManifestTypeYML  = "yml"
	ManifestTypeJSON = "json"

	// EphemeralServerURL is the address of a locally started IO server,
	// the only one for which an ephemeral token is created
	EphemeralServerURL = "http://localhost:9090"

	redacted = "***"
)

// Inputs are the step inputs. All values are opaque strings, empty values are
// allowed and nothing is validated.
type Inputs struct {
	IOServerURL            string `mapstructure:"ioserverurl" yaml:"ioServerUrl"`
	IOServerToken          string `mapstructure:"ioservertoken" yaml:"ioServerToken"`
	RunID                  string `mapstructure:"runid" yaml:"runId"`
	WorkflowServerURL      string `mapstructure:"workflowserverurl" yaml:"workflowServerUrl"`
	WorkflowVersion        string `mapstructure:"workflowversion" yaml:"workflowVersion"`
	IOManifestURL          string `mapstructure:"iomanifesturl" yaml:"ioManifestUrl"`
	AdditionalWorkflowArgs string `mapstructure:"additionalworkflowargs" yaml:"additionalWorkflowArgs"`
	Stage                  string `mapstructure:"stage" yaml:"stage"`
	ReleaseType            string `mapstructure:"releasetype" yaml:"releaseType"`
	ManifestType           string `mapstructure:"manifesttype" yaml:"manifestType"`
}

var inputKeys = []string{
	"ioserverurl",
	"ioservertoken",
	"runid",
	"workflowserverurl",
	"workflowversion",
	"iomanifesturl",
	"additionalworkflowargs",
	"stage",
	"releasetype",
	"manifesttype",
}

// LoadInputs reads the inputs from v. Every key is bound to its INPUT_<KEY>
// environment variable, which takes precedence over a config file read by v.
func LoadInputs(v *viper.Viper) (Inputs, error) {
	v.SetEnvPrefix(EnvPrefix)
	for _, key := range inputKeys {
		if err := v.BindEnv(key); err != nil {
			return Inputs{}, fmt.Errorf("binding input %s: %w", key, err)
		}
	}

	var in Inputs
	if err := v.Unmarshal(&in); err != nil {
		return Inputs{}, fmt.Errorf("decoding inputs: %w", err)
	}
	in.trim()
	return in, nil
}

func (in *Inputs) trim() {
	for _, p := range []*string{
		&in.IOServerURL,
		&in.IOServerToken,
		&in.RunID,
		&in.WorkflowServerURL,
		&in.WorkflowVersion,
		&in.IOManifestURL,
		&in.AdditionalWorkflowArgs,
		&in.Stage,
		&in.ReleaseType,
		&in.ManifestType,
	} {
		*p = strings.TrimSpace(*p)
	}
}

// Redacted returns a copy safe to be printed or logged
func (in Inputs) Redacted() Inputs {
	if in.IOServerToken != "" {
		in.IOServerToken = redacted
	}
	return in
}

// Ephemeral reports if a throw-away token must be created for the local IO server
func (in Inputs) Ephemeral() bool {
	return in.IOServerToken == "" && in.IOServerURL == EphemeralServerURL
}

// ManifestFile returns the name of the manifest generated by the prescription
// script for a given manifest type, or an empty string for unknown types.
func ManifestFile(manifestType string) string {
	switch manifestType {
	case ManifestTypeYML:
		return "io.yml"
	case ManifestTypeJSON:
		return "io.json"
	default:
		return ""
	}
}
