package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/calebmorris/foreman/internal/store"
	"github.com/calebmorris/foreman/internal/worker"
)

var (
	initForce      bool
	initWithConfig bool
)

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a foreman project",
	Long: `Initialize a directory for use with foreman.

This command sets up everything needed to run workflows:
  - Creates the .foreman directory structure (logs, signals)
  - Creates a default worker roster (workers.yaml) if none exists
  - Creates and migrates the workflow database

The directory argument is optional and defaults to the current directory.

Examples:
  foreman init              # Initialize current directory
  foreman init ./myproject  # Initialize specific directory
  foreman init --force      # Reinitialize even if already set up
  foreman init --with-config  # Also write a .foreman.yaml template`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Reinitialize even if already set up")
	initCmd.Flags().BoolVar(&initWithConfig, "with-config", false, "Create a .foreman.yaml template")
}

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	absPath, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolving absolute path: %w", err)
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", absPath, err)
	}

	fmt.Printf("Initializing foreman in %s...\n\n", absPath)

	foremanDir := filepath.Join(absPath, ".foreman")
	if _, err := os.Stat(foremanDir); err == nil && !initForce {
		fmt.Printf("Directory already initialized. Use --force to reinitialize.\n")
		return nil
	}

	for _, sub := range []string{"logs", "signals"} {
		if err := os.MkdirAll(filepath.Join(foremanDir, sub), 0755); err != nil {
			return fmt.Errorf("creating .foreman/%s directory: %w", sub, err)
		}
	}
	printStatus("✓", "Created .foreman directory structure", color.FgGreen)

	rosterPath := filepath.Join(foremanDir, worker.RosterFileName)
	if _, err := os.Stat(rosterPath); os.IsNotExist(err) || initForce {
		if err := worker.SaveRoster(absPath, worker.DefaultRoster()); err != nil {
			return fmt.Errorf("writing worker roster: %w", err)
		}
		printStatus("✓", "Created default worker roster (workers.yaml)", color.FgGreen)
	} else {
		printStatus("✓", "Worker roster exists", color.FgGreen)
	}

	if err := updateGitignore(absPath); err != nil {
		return fmt.Errorf("updating .gitignore: %w", err)
	}
	printStatus("✓", "Updated .gitignore", color.FgGreen)

	db, err := store.OpenProject(absPath)
	if err != nil {
		return fmt.Errorf("opening workflow database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrating workflow database: %w", err)
	}
	printStatus("✓", "Workflow database ready", color.FgGreen)

	if initWithConfig {
		if err := createProjectConfig(absPath); err != nil {
			return fmt.Errorf("creating project config: %w", err)
		}
		printStatus("✓", "Created .foreman.yaml template", color.FgGreen)
	}

	apiKey := os.Getenv("ANTHROPIC_API_KEY")

	fmt.Printf("\n%s foreman initialization complete!\n\n", color.GreenString("✓"))
	fmt.Println("Next steps:")
	if apiKey == "" {
		fmt.Println("  1. Set your API key:")
		fmt.Println("     export ANTHROPIC_API_KEY=your-key-here")
		fmt.Println()
	}
	fmt.Println("  2. Run a workflow:")
	fmt.Println("     foreman run \"your request here\"")
	fmt.Println()
	fmt.Println("  3. Learn more:")
	fmt.Println("     foreman --help")

	return nil
}

const projectConfigTemplate = `# foreman project configuration
# Values here override the user config at ~/.config/foreman/config.yaml

anthropic:
  # api_key: ${ANTHROPIC_API_KEY}
  # model: claude-sonnet-4-20250514
  # use_bedrock: false

orchestrator:
  # task_timeout: 5m
  # max_concurrent_tasks: 3
  # quality_gate: true
`

// createProjectConfig writes a commented .foreman.yaml template, refusing to
// overwrite an existing one.
func createProjectConfig(dir string) error {
	path := filepath.Join(dir, ".foreman.yaml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(projectConfigTemplate), 0644)
}

// updateGitignore appends the .foreman entry if it is not already listed.
func updateGitignore(dir string) error {
	path := filepath.Join(dir, ".gitignore")

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if strings.Contains(string(existing), ".foreman/") {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	entry := ".foreman/\n"
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		entry = "\n" + entry
	}
	_, err = f.WriteString(entry)
	return err
}

// printStatus prints a colored status line.
func printStatus(symbol, message string, c color.Attribute) {
	color.New(c).Printf("%s ", symbol)
	fmt.Println(message)
}
