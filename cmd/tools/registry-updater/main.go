// cmd/tools/registry-updater/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"cpn-workers/pkg/registry"
)

func main() {
	syncCmd := flag.NewFlagSet("sync", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	syncPath := syncCmd.String("path", "configs/activity-registry.json", "Path to registry file")
	validatePath := validateCmd.String("path", "configs/activity-registry.json", "Path to registry file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "sync":
		syncCmd.Parse(os.Args[2:])
		if err := syncRegistry(*syncPath); err != nil {
			fmt.Printf("Error syncing registry: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %d activities to %s\n", len(registry.Builtin().Activities), *syncPath)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validateRegistry(*validatePath); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Registry validation passed.")

	case "help":
		fallthrough
	default:
		help()
	}
}

// syncRegistry overwrites the file with the activities compiled into the binary.
func syncRegistry(path string) error {
	reg := registry.Builtin()
	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return registry.SaveRegistry(reg, path)
}

// validateRegistry checks the file on its own and against the compiled task types.
func validateRegistry(path string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return err
	}

	missing, unexpected := registry.Diff(registry.Builtin(), reg)
	if len(missing) > 0 {
		return fmt.Errorf("registry is missing task types: %s", strings.Join(missing, ", "))
	}
	if len(unexpected) > 0 {
		return fmt.Errorf("registry lists task types no worker serves: %s", strings.Join(unexpected, ", "))
	}

	fmt.Printf("Found %d activities.\n", len(reg.Activities))
	return nil
}

func help() {
	fmt.Println(`
Usage: registry-updater <command> [flags]

Commands:
  sync     Regenerate the registry file from the compiled workers
  validate Check the registry file against the compiled workers
  help     Show this help message

Examples:
  registry-updater sync -path configs/activity-registry.json
  registry-updater validate -path configs/activity-registry.json`)
}
