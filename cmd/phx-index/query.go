package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phxls/workspace-index/internal/resolve"
	"github.com/phxls/workspace-index/internal/workspace"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run lookup queries against a scanned workspace",
}

var flagFromTemplate string

func init() {
	componentCmd.Flags().StringVar(&flagFromTemplate, "from", "", "template path providing the resolution context")

	queryCmd.AddCommand(componentsCmd)
	queryCmd.AddCommand(componentCmd)
	queryCmd.AddCommand(schemaCmd)
	queryCmd.AddCommand(fieldsCmd)
	queryCmd.AddCommand(templateCmd)
	queryCmd.AddCommand(eventCmd)
}

// scannedSession opens a session and runs a full scan; queries always
// answer from live disk content.
func scannedSession(cmd *cobra.Command) (*workspace.Session, error) {
	session, err := openSession()
	if err != nil {
		return nil, err
	}
	if err := session.Scan(cmd.Context()); err != nil {
		session.Close()
		return nil, err
	}
	return session, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var componentsCmd = &cobra.Command{
	Use:   "components",
	Short: "List every indexed component",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := scannedSession(cmd)
		if err != nil {
			return err
		}
		defer session.Close()
		return printJSON(session.AllComponents())
	},
}

var componentCmd = &cobra.Command{
	Use:   "component <tag>",
	Short: "Resolve a template tag to its component definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := scannedSession(cmd)
		if err != nil {
			return err
		}
		defer session.Close()

		tag := args[0]
		var opts resolve.Options
		if i := strings.LastIndexByte(tag, '.'); i >= 0 {
			opts.ModuleContext, tag = tag[:i], tag[i+1:]
		}
		if flagFromTemplate != "" {
			if content, readErr := os.ReadFile(flagFromTemplate); readErr == nil {
				opts.FileContent = content
			}
		}
		c := session.ResolveComponent(flagFromTemplate, tag, opts)
		if c == nil {
			return fmt.Errorf("no component matches %q", args[0])
		}
		return printJSON(c)
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema <module>",
	Short: "Show a schema's fields and associations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := scannedSession(cmd)
		if err != nil {
			return err
		}
		defer session.Close()
		s := session.Schema(args[0])
		if s == nil {
			return fmt.Errorf("no schema matches %q", args[0])
		}
		return printJSON(s)
	},
}

var fieldsCmd = &cobra.Command{
	Use:   "fields <module> <path>",
	Short: "Resolve a dotted access path against the schema graph",
	Long:  "Walks one schema hop per path segment: `fields MyApp.User organization.name` follows the organization association and reports the reachable fields.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := scannedSession(cmd)
		if err != nil {
			return err
		}
		defer session.Close()
		fields := session.FieldsForPath(args[0], strings.Split(args[1], ".")...)
		if fields == nil {
			return fmt.Errorf("path %q does not resolve from %s", args[1], args[0])
		}
		return printJSON(fields)
	},
}

var templateCmd = &cobra.Command{
	Use:   "template <path>",
	Short: "Show the assigns a template receives from controller renders",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := scannedSession(cmd)
		if err != nil {
			return err
		}
		defer session.Close()
		path, err := filepath.Abs(args[0])
		if err != nil {
			path = args[0]
		}
		sum := session.TemplateSummary(path)
		if sum == nil {
			return fmt.Errorf("no render targets %q", args[0])
		}
		return printJSON(sum)
	},
}

var eventCmd = &cobra.Command{
	Use:   "event <name>",
	Short: "Check whether any module handles an event name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := scannedSession(cmd)
		if err != nil {
			return err
		}
		defer session.Close()
		fmt.Println(session.EventExists(args[0]))
		return nil
	},
}
