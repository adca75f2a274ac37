// ABOUTME: Install Claude Code skill for cledger.
// ABOUTME: Embeds and installs the skill definition to ~/.claude/skills/.
package main

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

//go:embed skill/SKILL.md
var skillFS embed.FS

func newInstallSkillCmd(a *app) *cobra.Command {
	var skipConfirm bool
	cmd := &cobra.Command{
		Use:   "install-skill",
		Short: "Install Claude Code skill",
		Long: `Install the cledger skill for Claude Code.

This copies the skill definition to ~/.claude/skills/cledger/
so Claude Code can log sessions and coach from your training data.`,
		Annotations: map[string]string{annotationNoStore: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get home directory: %w", err)
			}
			return installSkill(cmd.InOrStdin(), cmd.OutOrStdout(), home, skipConfirm)
		},
	}
	cmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}

func installSkill(in io.Reader, out io.Writer, home string, skipConfirm bool) error {
	skillDir := filepath.Join(home, ".claude", "skills", "cledger")
	skillPath := filepath.Join(skillDir, "SKILL.md")

	fmt.Fprintln(out, "This will install the cledger skill, enabling Claude Code to:")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  • Log climbing sessions and injuries")
	fmt.Fprintln(out, "  • Read training load, rest, and trend analytics")
	fmt.Fprintln(out, "  • Keep coaching insights between conversations")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Destination:")
	fmt.Fprintf(out, "  %s\n", skillPath)
	fmt.Fprintln(out)

	if _, err := os.Stat(skillPath); err == nil {
		fmt.Fprintln(out, "Note: A skill file already exists and will be overwritten.")
		fmt.Fprintln(out)
	}

	if !skipConfirm {
		fmt.Fprint(out, "Install the cledger skill? [y/N] ")
		response, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && response == "" {
			return fmt.Errorf("failed to read response: %w", err)
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Fprintln(out, "Installation canceled.")
			return nil
		}
		fmt.Fprintln(out)
	}

	content, err := skillFS.ReadFile("skill/SKILL.md")
	if err != nil {
		return fmt.Errorf("failed to read embedded skill: %w", err)
	}

	if err := os.MkdirAll(skillDir, 0750); err != nil {
		return fmt.Errorf("failed to create skill directory: %w", err)
	}

	if err := os.WriteFile(skillPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write skill file: %w", err)
	}

	green.Fprintln(out, "✓ Installed cledger skill")
	return nil
}
