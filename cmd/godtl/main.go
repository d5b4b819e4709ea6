// Command godtl renders templates from the command line, reading
// variables from YAML files and engine settings from a TOML config.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/deicod/godtl"
)

type engineConfig struct {
	Autoescape      *bool    `toml:"autoescape"`
	Debug           bool     `toml:"debug"`
	StringIfInvalid string   `toml:"string_if_invalid"`
	Strict          bool     `toml:"strict"`
	Localize        bool     `toml:"localize"`
	TimezoneSupport bool     `toml:"timezone_support"`
	TemplateDirs    []string `toml:"template_dirs"`
}

type renderFlags struct {
	contextFiles []string
	vars         []string
	dirs         []string
	configFile   string
	output       string
}

func main() {
	root := &cobra.Command{
		Use:           "godtl",
		Short:         "Render and check templates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRenderCmd(), newCheckCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "godtl: %v\n", err)
		os.Exit(1)
	}
}

func newRenderCmd() *cobra.Command {
	flags := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "render TEMPLATE",
		Short: "Render a template with the given context",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runRender(args[0], flags)
		},
	}
	cmd.Flags().StringSliceVarP(&flags.contextFiles, "context", "c", nil, "YAML file(s) with template variables")
	cmd.Flags().StringArrayVar(&flags.vars, "var", nil, "extra variable as key=value (repeatable)")
	cmd.Flags().StringSliceVarP(&flags.dirs, "dir", "d", nil, "template directories for inheritance and includes")
	cmd.Flags().StringVar(&flags.configFile, "config", "", "TOML engine configuration file")
	cmd.Flags().StringVarP(&flags.output, "out", "o", "", "write output to file instead of stdout")
	return cmd
}

func newCheckCmd() *cobra.Command {
	flags := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "check TEMPLATE...",
		Short: "Parse templates and report syntax errors without rendering",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			engine, err := buildEngine(flags, nil)
			if err != nil {
				return err
			}
			failed := false
			for _, path := range args {
				source, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				if _, err := engine.FromString(string(source)); err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
					failed = true
					continue
				}
				fmt.Printf("%s: ok\n", path)
			}
			if failed {
				return fmt.Errorf("some templates failed to parse")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.configFile, "config", "", "TOML engine configuration file")
	return cmd
}

func runRender(templatePath string, flags *renderFlags) error {
	source, err := os.ReadFile(templatePath)
	if err != nil {
		return err
	}

	// The template's own directory always participates, so relative
	// extends and include names work without extra flags.
	dirs := append([]string{filepath.Dir(templatePath)}, flags.dirs...)
	engine, err := buildEngine(flags, dirs)
	if err != nil {
		return err
	}

	vars, err := loadContext(flags)
	if err != nil {
		return err
	}

	tmpl, err := engine.FromString(string(source))
	if err != nil {
		return err
	}
	out, err := tmpl.Render(vars)
	if err != nil {
		return err
	}

	if flags.output != "" {
		return os.WriteFile(flags.output, []byte(out), 0o644)
	}
	fmt.Print(out)
	return nil
}

func buildEngine(flags *renderFlags, dirs []string) (*godtl.Engine, error) {
	var cfg engineConfig
	if flags.configFile != "" {
		if _, err := toml.DecodeFile(flags.configFile, &cfg); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", flags.configFile, err)
		}
	}
	dirs = append(dirs, cfg.TemplateDirs...)

	opts := []godtl.Option{
		godtl.WithLoaders(godtl.NewFileSystemLoader(dirs...)),
		godtl.WithDebug(cfg.Debug),
		godtl.WithStringIfInvalid(cfg.StringIfInvalid),
		godtl.WithStrict(cfg.Strict),
		godtl.WithLocalize(cfg.Localize),
		godtl.WithTimezoneSupport(cfg.TimezoneSupport),
	}
	if cfg.Autoescape != nil {
		opts = append(opts, godtl.WithAutoescape(*cfg.Autoescape))
	}
	return godtl.NewEngine(opts...), nil
}

func loadContext(flags *renderFlags) (map[string]interface{}, error) {
	vars := map[string]interface{}{}
	for _, path := range flags.contextFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		loaded := map[string]interface{}{}
		if err := yaml.Unmarshal(data, &loaded); err != nil {
			return nil, fmt.Errorf("parsing context %s: %w", path, err)
		}
		for k, v := range loaded {
			vars[k] = v
		}
	}
	for _, pair := range flags.vars {
		eq := strings.Index(pair, "=")
		if eq <= 0 {
			return nil, fmt.Errorf("invalid --var %q, expected key=value", pair)
		}
		vars[pair[:eq]] = pair[eq+1:]
	}
	return vars, nil
}
