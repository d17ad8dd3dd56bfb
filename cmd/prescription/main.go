package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/blackduck-inc/io-prescription-action/internal/actions"
	"github.com/blackduck-inc/io-prescription-action/internal/ioclient"
	"github.com/blackduck-inc/io-prescription-action/internal/log"
	"github.com/blackduck-inc/io-prescription-action/internal/model"
	"github.com/blackduck-inc/io-prescription-action/internal/service"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	inputs model.Inputs

	flagConfigFilePath string // value of --config flag
	flagVerbose        bool   // value of --verbose flag
	flagWorkdir        string
	flagArtifactsURL   string
	flagJava           string
)

func main() {
	// root flags
	rootCmd.PersistentFlags().StringVar(&flagConfigFilePath, "config", "", "Config file with inputs, INPUT_* environment variables take precedence")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "verbose logging")

	runCmd.Flags().StringVar(&flagWorkdir, "workdir", "", "working directory of the prescription")
	runCmd.Flags().StringVar(&flagArtifactsURL, "artifacts-url", ioclient.DefaultArtifactsURL, "base url of the prescription script")
	runCmd.Flags().StringVar(&flagJava, "java", "java", "java binary running the workflow engine client")
	for _, name := range []string{"workdir", "artifacts-url", "java"} {
		_ = runCmd.Flags().MarkHidden(name)
	}

	// never print messages
	rootCmd.SilenceErrors = true

	// read the inputs, setup logging
	rootCmd.PersistentPreRunE = initPrescription

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(inputsCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		// already reported to the step
		if !errors.Is(err, actions.ErrStepFailed) {
			slog.Error("prescription failed", "err", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "prescription",
	Short:        "Runs the IO prescription and the workflow engine in a CI job",
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run executes the stage selected by the inputs",
	RunE:  doRun,
}

var inputsCmd = &cobra.Command{
	Use:    "inputs",
	Short:  "prints the effective inputs",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		defer func() {
			_ = enc.Close()
		}()
		return enc.Encode(struct {
			Inputs model.Inputs `yaml:"inputs"`
			SCM    model.SCM    `yaml:"scm"`
		}{
			Inputs: inputs.Redacted(),
			SCM:    model.SCMFromEnv(os.Getenv),
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "version provide version of a prescription",
	Run: func(cmd *cobra.Command, args []string) {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			fmt.Println("prescription: version info not available")
			return
		}

		fmt.Printf("prescription: %s\n", info.Main.Version)
		fmt.Printf("go:           %s\n", info.GoVersion)
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				fmt.Printf("commit:       %s\n", s.Value)
			case "vcs.time":
				fmt.Printf("date:         %s\n", s.Value)
			case "vcs.modified":
				fmt.Printf("dirty:        %s\n", s.Value)
			}
		}
		fmt.Println()
	},
}

func doRun(cmd *cobra.Command, args []string) error {
	attrs := slog.Group("prescription",
		slog.String("cmd", "run"),
		slog.Int("pid", os.Getpid()),
		slog.String("execution", uuid.NewString()),
	)
	ctx := log.ContextAttrs(cmd.Context(), attrs)

	step := actions.NewStep(os.Stdout, os.Getenv)
	runner := service.NewExecRunner(os.Stdout, func(_ context.Context, line string) {
		_, _ = fmt.Fprintln(os.Stderr, line)
	})
	fetcher := ioclient.NewScriptFetcher(flagArtifactsURL, model.ScriptFile)

	var identity service.IdentityClient
	if inputs.Ephemeral() {
		client, err := ioclient.NewClient(inputs.IOServerURL)
		if err != nil {
			return err
		}
		identity = client
	}

	p, err := service.New(service.Config{
		Inputs: inputs,
		SCM:    model.SCMFromEnv(os.Getenv),
		Dir:    flagWorkdir,
		Java:   flagJava,
	}, step, runner, fetcher, identity)
	if err != nil {
		return err
	}

	if err := p.Do(ctx); err != nil {
		slog.ErrorContext(ctx, "prescription failed", "error", err)
		step.Fail(err.Error())
	}
	return step.Err()
}

func initPrescription(cmd *cobra.Command, _ []string) error {
	// initialize logging
	verbose := flagVerbose || os.Getenv("RUNNER_DEBUG") == "1"
	slog.SetDefault(log.New(os.Stderr, verbose))

	v := viper.New()
	if flagConfigFilePath != "" {
		v.SetConfigFile(flagConfigFilePath)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", flagConfigFilePath, err)
		}
	}

	var err error
	inputs, err = model.LoadInputs(v)
	if err != nil {
		return err
	}

	slog.Debug("prescription", "configPath", flagConfigFilePath)
	slog.Debug("prescription", "inputs", inputs.Redacted())
	return nil
}
