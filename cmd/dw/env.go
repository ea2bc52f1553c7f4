package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docwright/docwright/internal/environment"
	"github.com/docwright/docwright/internal/security"
	"github.com/docwright/docwright/internal/ui"
)

var (
	envArchive string
	envProject string
	envSystem  string
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Inspect the resource environment",
	Long: `Inspect what the resolved resource environment can serve: workflows,
templates, static assets, and processor/converter definitions.

By default the environment layers the project root over the system
installation. --archive inspects a workflow archive instead.`,
}

var envManifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Show everything the environment can serve",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := buildEnvironment()
		if err != nil {
			return err
		}
		manifest, err := env.Manifest()
		if err != nil {
			return err
		}
		if jsonOutput {
			outputJSON(manifest)
			return nil
		}
		printManifest(manifest)
		return nil
	},
}

var envWorkflowsCmd = &cobra.Command{
	Use:   "workflows",
	Short: "List available workflows",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := buildEnvironment()
		if err != nil {
			return err
		}
		names, err := env.ListWorkflows()
		if err != nil {
			return err
		}
		if jsonOutput {
			outputJSON(map[string][]string{"workflows": names})
			return nil
		}
		if len(names) == 0 {
			fmt.Println(ui.RenderMuted("no workflows available"))
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var envCheckCmd = &cobra.Command{
	Use:   "check <workflow>",
	Short: "Check a workflow's resources",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := buildEnvironment()
		if err != nil {
			return err
		}
		name := args[0]
		if !env.HasWorkflow(name) {
			available, _ := env.ListWorkflows()
			if len(available) > 0 {
				return fmt.Errorf("unknown workflow %q (available: %s)", name, strings.Join(available, ", "))
			}
			return fmt.Errorf("unknown workflow %q", name)
		}

		wf, err := env.Workflow(name)
		if err != nil {
			fmt.Printf("%s workflow %s: %v\n", ui.RenderFailIcon(), name, err)
			os.Exit(1)
		}
		fmt.Printf("%s workflow %s", ui.RenderPassIcon(), ui.RenderAccent(wf.Name))
		if wf.Description != "" {
			fmt.Printf(" %s", ui.RenderMuted("("+wf.Description+")"))
		}
		fmt.Println()

		manifest, err := env.Manifest()
		if err != nil {
			return err
		}
		for _, tmpl := range manifest.Templates[name] {
			ok := env.HasTemplate(environment.TemplateRequest{Workflow: name, Template: tmpl})
			icon := ui.RenderPassIcon()
			if !ok {
				icon = ui.RenderFailIcon()
			}
			fmt.Printf("  %s template %s\n", icon, tmpl)
		}
		for _, static := range manifest.Statics[name] {
			ok := env.HasStatic(environment.StaticRequest{Workflow: name, Static: static})
			icon := ui.RenderPassIcon()
			if !ok {
				icon = ui.RenderFailIcon()
			}
			fmt.Printf("  %s static %s\n", icon, static)
		}
		return nil
	},
}

// buildEnvironment resolves the environment from flags and settings, then
// validates it before handing it to the command body.
func buildEnvironment() (environment.Environment, error) {
	settings := loadSettings()
	validator := security.NewValidator(settings.Limits)

	var env environment.Environment
	if envArchive != "" {
		env = environment.NewArchive(envArchive, validator)
	} else {
		project := envProject
		if project == "" {
			project = settings.ProjectRoot
		}
		if project == "" {
			project, _ = os.Getwd()
		}
		system := envSystem
		if system == "" {
			system = settings.SystemRoot
		}
		env = environment.NewLayered(project, system, validator)
	}
	if err := environment.Validate(env); err != nil {
		return nil, err
	}
	return env, nil
}

func printManifest(m *environment.Manifest) {
	fmt.Println(ui.RenderCategory("workflows"))
	if len(m.Workflows) == 0 {
		fmt.Println(ui.RenderMuted("  (none)"))
	}
	for _, wf := range m.Workflows {
		fmt.Printf("  %s\n", wf)
		for _, tmpl := range m.Templates[wf] {
			fmt.Printf("    template %s\n", tmpl)
		}
		for _, static := range m.Statics[wf] {
			fmt.Printf("    static   %s\n", ui.RenderMuted(static))
		}
	}

	fmt.Println(ui.RenderCategory("processors"))
	printNameList(m.Processors)
	fmt.Println(ui.RenderCategory("converters"))
	printNameList(m.Converters)

	if m.HasConfig {
		fmt.Printf("%s config present\n", ui.RenderPassIcon())
	} else {
		fmt.Printf("%s no config\n", ui.RenderSkipIcon())
	}
}

func printNameList(names []string) {
	if len(names) == 0 {
		fmt.Println(ui.RenderMuted("  (none)"))
		return
	}
	sorted := append([]string{}, names...)
	sort.Strings(sorted)
	for _, name := range sorted {
		fmt.Printf("  %s\n", name)
	}
}

func init() {
	envCmd.PersistentFlags().StringVar(&envArchive, "archive", "", "Inspect a workflow archive (.zip) instead of directory roots")
	envCmd.PersistentFlags().StringVar(&envProject, "project", "", "Project root (default: working directory)")
	envCmd.PersistentFlags().StringVar(&envSystem, "system", "", "System installation root")

	envCmd.AddCommand(envManifestCmd)
	envCmd.AddCommand(envWorkflowsCmd)
	envCmd.AddCommand(envCheckCmd)
}
