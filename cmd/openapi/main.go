// Command openapi exports the API document as YAML and checks revisions for
// backward-incompatible changes.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"memoria/docs"

	"gopkg.in/yaml.v3"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	switch os.Args[1] {
	case "dump":
		runDump(os.Args[2:])
	case "compat":
		runCompat(os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: openapi dump [-o swagger.yaml] | openapi compat -base <path> -revision <path>")
	os.Exit(2)
}

func runDump(args []string) {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	out := fs.String("o", "", "output file (stdout when empty)")
	_ = fs.Parse(args)

	raw, err := exportYAML()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to export spec: %v\n", err)
		os.Exit(1)
	}
	if *out == "" {
		_, _ = os.Stdout.Write(raw)
		return
	}
	if err := os.WriteFile(*out, raw, 0o600); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", *out, err)
		os.Exit(1)
	}
}

// exportYAML renders the registered swagger document as YAML.
func exportYAML() ([]byte, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(docs.SwaggerInfo.ReadDoc()), &doc); err != nil {
		return nil, fmt.Errorf("parse swagger json: %w", err)
	}
	return yaml.Marshal(doc)
}

func runCompat(args []string) {
	fs := flag.NewFlagSet("compat", flag.ExitOnError)
	basePath := fs.String("base", "", "base OpenAPI swagger.yaml path")
	revisionPath := fs.String("revision", "", "revision OpenAPI swagger.yaml path")
	_ = fs.Parse(args)

	if strings.TrimSpace(*basePath) == "" || strings.TrimSpace(*revisionPath) == "" {
		usage()
	}

	baseSpec, err := loadSpec(*basePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load base spec: %v\n", err)
		os.Exit(1)
	}
	revisionSpec, err := loadSpec(*revisionPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load revision spec: %v\n", err)
		os.Exit(1)
	}

	if issues := compare(baseSpec, revisionSpec); len(issues) > 0 {
		fmt.Fprintln(os.Stderr, "backward compatibility check failed:")
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "- %s\n", issue)
		}
		os.Exit(1)
	}
	fmt.Println("openapi compatibility check passed")
}
