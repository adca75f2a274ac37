// ABOUTME: CLI command for setting the API password.
// ABOUTME: Prints a bcrypt hash and can store it, with a signing secret, in the config file.
package main

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/harperreed/cledger/internal/api"
	"github.com/harperreed/cledger/internal/config"
	"github.com/harperreed/cledger/internal/models"
	"github.com/spf13/cobra"
)

func newPasswdCmd(a *app) *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Hash the API password",
		Long: `Read a password from stdin and print its bcrypt hash for auth.password_hash.

With --save the hash is written to the config file, along with a random
JWT signing secret if none is configured yet.

EXAMPLES:

  cledger passwd                       # Prompt and print the hash
  echo "s3cret" | cledger passwd --save`,
		Annotations: map[string]string{annotationNoStore: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password := strings.TrimRight(line, "\r\n")
			if password == "" {
				return fmt.Errorf("%w: password must not be empty", models.ErrInvalid)
			}

			hash, err := api.HashPassword(password)
			if err != nil {
				return err
			}

			if !save {
				fmt.Fprintln(cmd.OutOrStdout(), hash)
				return nil
			}

			a.cfg.Auth.PasswordHash = hash
			if a.cfg.Auth.JWTSecret == "" {
				secret, err := randomSecret()
				if err != nil {
					return err
				}
				a.cfg.Auth.JWTSecret = secret
			}

			path := a.cfgPath
			if path == "" {
				path = config.GetConfigPath()
			}
			if err := a.cfg.SaveFile(path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			green.Fprintf(cmd.OutOrStdout(), "✓ Saved password hash to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "write the hash to the config file")
	return cmd
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
